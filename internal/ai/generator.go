// Package ai defines the narrow interface to the generative AI service and
// its Gemini-backed implementation.
package ai

import (
	"context"
	"fmt"
	"iter"

	"github.com/dkozyrev/matcorner/internal/domain"
)

// GeneratedImage is the result of an image-generation call.
type GeneratedImage struct {
	// Path is where the image bytes were written, served to the UI as a URL.
	Path string
	// RevisedPrompt is the prompt the service actually rendered, when the
	// backend rewrites prompts before generation.
	RevisedPrompt string
}

// Generator is the capability the flow controller depends on. It is injected
// so tests can substitute a double for the real service.
type Generator interface {
	// DescribeImage sends an image with an instruction prompt and returns
	// the model's text.
	DescribeImage(ctx context.Context, imagePath, prompt string) (string, error)

	// DescribeVideo sends a video with an instruction prompt and returns
	// the model's text.
	DescribeVideo(ctx context.Context, videoPath, prompt string) (string, error)

	// GenerateText runs a plain text prompt, with optional system
	// instructions.
	GenerateText(ctx context.Context, prompt, instructions string) (string, error)

	// Chat continues a conversation and streams the response chunks.
	Chat(ctx context.Context, history []domain.ChatMessage, message, instructions string) iter.Seq2[string, error]

	// GenerateImage renders an image from a prompt.
	GenerateImage(ctx context.Context, prompt string) (GeneratedImage, error)
}

// ServiceError wraps any transport, auth or quota failure from the external
// AI service. The service offers no retry guarantees, so callers surface
// these to the user instead of retrying.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("ai service %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
