package ai

import (
	"context"
	"fmt"
	"iter"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/dkozyrev/matcorner/internal/domain"
)

// Gemini implements Generator on top of the Google GenAI API.
type Gemini struct {
	client      *genai.Client
	textModel   string
	visionModel string
	imageModel  string
	imageDir    string
}

// Ensure Gemini implements Generator.
var _ Generator = (*Gemini)(nil)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey      string
	TextModel   string
	VisionModel string
	ImageModel  string
	// ImageDir is where generated images are written.
	ImageDir string
}

// NewGemini creates a Gemini-backed generator. The API key is a hard
// precondition; config validation rejects an empty one before this runs.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{
		client:      client,
		textModel:   cfg.TextModel,
		visionModel: cfg.VisionModel,
		imageModel:  cfg.ImageModel,
		imageDir:    cfg.ImageDir,
	}, nil
}

// DescribeImage sends the image inline with the prompt.
func (g *Gemini) DescribeImage(ctx context.Context, imagePath, prompt string) (string, error) {
	return g.describeMedia(ctx, "describe_image", imagePath, prompt)
}

// DescribeVideo sends the video inline with the prompt.
func (g *Gemini) DescribeVideo(ctx context.Context, videoPath, prompt string) (string, error) {
	return g.describeMedia(ctx, "describe_video", videoPath, prompt)
}

func (g *Gemini) describeMedia(ctx context.Context, op, path, prompt string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read media file: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType(path)),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.visionModel, contents, nil)
	if err != nil {
		return "", &ServiceError{Op: op, Err: err}
	}
	return resp.Text(), nil
}

// GenerateText runs a text-only prompt.
func (g *Gemini) GenerateText(ctx context.Context, prompt, instructions string) (string, error) {
	var config *genai.GenerateContentConfig
	if instructions != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instructions, genai.RoleUser),
		}
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, contents, config)
	if err != nil {
		return "", &ServiceError{Op: "generate_text", Err: err}
	}
	return resp.Text(), nil
}

// Chat streams a conversational response given the prior history.
func (g *Gemini) Chat(ctx context.Context, history []domain.ChatMessage, message, instructions string) iter.Seq2[string, error] {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		switch msg.Role {
		case domain.RoleSystem:
			// System turns ride along as instructions, not as history.
			if instructions == "" {
				instructions = msg.Content
			}
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	var config *genai.GenerateContentConfig
	if instructions != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(instructions, genai.RoleUser),
		}
	}

	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.textModel, contents, config) {
			if err != nil {
				yield("", &ServiceError{Op: "chat", Err: err})
				return
			}
			chunk := resp.Text()
			if chunk == "" {
				continue
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// GenerateImage renders an image and writes it under the image directory.
func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (GeneratedImage, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return GeneratedImage{}, &ServiceError{Op: "generate_image", Err: err}
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return GeneratedImage{}, &ServiceError{Op: "generate_image", Err: fmt.Errorf("no image returned")}
	}

	img := resp.GeneratedImages[0]
	if err := os.MkdirAll(g.imageDir, 0o755); err != nil {
		return GeneratedImage{}, fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(g.imageDir, uuid.NewString()+".png")
	if err := os.WriteFile(path, img.Image.ImageBytes, 0o644); err != nil {
		return GeneratedImage{}, fmt.Errorf("write generated image: %w", err)
	}

	return GeneratedImage{Path: path, RevisedPrompt: img.EnhancedPrompt}, nil
}

// mimeType guesses the media type from the file extension, defaulting to
// jpeg for images with unknown extensions and mp4 for common video ones.
func mimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	switch ext {
	case ".mp4", ".m4v", ".mov":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	default:
		return "image/jpeg"
	}
}
