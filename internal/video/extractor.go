// Package video provides frame-accurate segment extraction backed by the
// ffmpeg and ffprobe binaries.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Info describes the properties of a video stream.
type Info struct {
	FPS      float64
	Width    int
	Height   int
	Duration float64
}

// Extractor trims video segments by shelling out to ffmpeg.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewExtractor creates an extractor using the given binary paths. Empty paths
// fall back to "ffmpeg"/"ffprobe" on PATH.
func NewExtractor(ffmpegPath, ffprobePath string) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Extractor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Probe reads the stream properties of a video file.
func (e *Extractor) Probe(ctx context.Context, path string) (Info, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,width,height:format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return Info{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbeOutput(string(output))
}

// ExtractSegment writes the frames of inputPath covering [start, end] seconds
// to a new file next to the input, preserving the source frame rate and
// dimensions. The frame range is inclusive, floor(start*fps) through
// floor(end*fps); when the source is shorter than requested the segment is
// simply truncated, not an error. The output path is returned on success.
func (e *Extractor) ExtractSegment(ctx context.Context, inputPath string, start, end float64) (string, error) {
	if start < 0 || end < start {
		return "", fmt.Errorf("invalid segment range [%v, %v]", start, end)
	}

	info, err := e.Probe(ctx, inputPath)
	if err != nil {
		return "", fmt.Errorf("open input video: %w", err)
	}
	if info.FPS <= 0 {
		return "", fmt.Errorf("input video %s reports no frame rate", inputPath)
	}

	startFrame, frameCount := segmentFrames(start, end, info.FPS)
	outputPath := segmentPath(inputPath)

	// Seek by frame-exact timestamp, then emit exactly the requested number
	// of frames. Audio is dropped, matching the frame-by-frame rewrite the
	// output codec (mpeg4) is fixed for.
	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-ss", strconv.FormatFloat(float64(startFrame)/info.FPS, 'f', 6, 64),
		"-i", inputPath,
		"-frames:v", strconv.Itoa(frameCount),
		"-c:v", "mpeg4",
		"-q:v", "5",
		"-an",
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg segment extraction: %w, output: %s", err, string(output))
	}

	slog.Info("video segment extracted",
		"input", inputPath,
		"output", outputPath,
		"start_frame", startFrame,
		"frame_count", frameCount,
		"fps", info.FPS,
	)
	return outputPath, nil
}

// segmentFrames computes the inclusive frame range for a time window.
func segmentFrames(start, end, fps float64) (startFrame, frameCount int) {
	startFrame = int(math.Floor(start * fps))
	endFrame := int(math.Floor(end * fps))
	return startFrame, endFrame - startFrame + 1
}

// segmentPath derives the trimmed-segment filename from the input filename,
// e.g. match.mp4 -> match_segment.mp4.
func segmentPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "_segment" + ext
}

// parseProbeOutput parses ffprobe key=value lines.
func parseProbeOutput(output string) (Info, error) {
	var info Info
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "r_frame_rate":
			fps, err := parseRate(value)
			if err != nil {
				return Info{}, fmt.Errorf("parse frame rate %q: %w", value, err)
			}
			info.FPS = fps
		case "width":
			info.Width, _ = strconv.Atoi(value)
		case "height":
			info.Height, _ = strconv.Atoi(value)
		case "duration":
			info.Duration, _ = strconv.ParseFloat(value, 64)
		}
	}
	if info.FPS == 0 {
		return Info{}, fmt.Errorf("ffprobe output carries no frame rate")
	}
	return info, nil
}

// parseRate parses ffprobe's rational frame rate ("30000/1001" or "25/1").
func parseRate(s string) (float64, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return strconv.ParseFloat(s, 64)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator")
	}
	return n / d, nil
}
