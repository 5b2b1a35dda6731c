package prompt

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Enhancer refines user prompt text through one-shot text-to-text calls.
// Implementations return an error rather than a degraded string; the HTTP
// layer falls back to the original text so enhancement failures never block
// the user.
type Enhancer interface {
	// Enhance rewrites the prompt into a richer image-generation prompt.
	// contextHint optionally carries surrounding context, e.g. the template
	// prompt when enhancing a subject prompt.
	Enhance(ctx context.Context, prompt, contextHint string) (string, error)
	// SuggestNegative proposes a negative prompt for the given prompt.
	SuggestNegative(ctx context.Context, prompt string) (string, error)
}

// StaticEnhancer is the offline fallback used when no text model is
// configured. It applies a fixed photographic treatment instead of calling
// out.
type StaticEnhancer struct{}

func NewStaticEnhancer() *StaticEnhancer {
	return &StaticEnhancer{}
}

func (s *StaticEnhancer) Enhance(ctx context.Context, prompt, contextHint string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", fmt.Errorf("prompt is required")
	}
	c := cases.Title(language.Und)
	subject := c.String(trimmed)
	if hint := strings.TrimSpace(contextHint); hint != "" {
		return fmt.Sprintf("%s, composed within %s, professional product photography, soft studio lighting, high detail", subject, hint), nil
	}
	return fmt.Sprintf("%s, professional product photography, soft studio lighting, high detail", subject), nil
}

func (s *StaticEnhancer) SuggestNegative(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}
	return "blurry, low quality, distorted proportions, watermark, text artifacts", nil
}

var _ Enhancer = (*StaticEnhancer)(nil)
