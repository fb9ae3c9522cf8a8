package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".webm": true,
	".avi":  true,
}

func (h *Handler) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "image", imageExtensions, h.coach.AttachImage)
}

func (h *Handler) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	h.handleUpload(w, r, "video", videoExtensions, h.coach.AttachVideo)
}

// handleUpload stores a multipart upload under the session's temp directory
// and attaches it to the session. The previous asset of the same kind, if
// any, is replaced on disk.
func (h *Handler) handleUpload(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	allowed map[string]bool,
	attach func(sessionID, path string) error,
) {
	id := sessionID(r)
	if h.sessions.Get(id) == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Debug("failed to close upload", "error", closeErr)
		}
	}()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowed[ext] {
		Error(w, http.StatusBadRequest, fmt.Sprintf("unsupported %s extension %q", kind, ext))
		return
	}

	dstPath := filepath.Join(h.sessions.Dir(id), kind+ext)
	dst, err := os.Create(dstPath)
	if err != nil {
		slog.Error("failed to create upload file", "path", dstPath, "error", err)
		Error(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil {
			slog.Debug("failed to close upload file", "error", closeErr)
		}
	}()

	if _, err := io.Copy(dst, file); err != nil {
		Error(w, http.StatusRequestEntityTooLarge, "upload too large or interrupted")
		return
	}

	if err := attach(id, dstPath); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("asset uploaded", "session_id", id, "kind", kind, "bytes", header.Size)
	JSON(w, http.StatusOK, map[string]string{"path": dstPath})
}
