package prompt

import (
	"context"
	"fmt"
	"strings"

	"composer/internal/providers/genai"
)

// GeminiEnhancer backs the Enhancer contract with one-shot Gemini text calls.
type GeminiEnhancer struct {
	client *genai.Client
}

func NewGeminiEnhancer(client *genai.Client) *GeminiEnhancer {
	return &GeminiEnhancer{client: client}
}

func (g *GeminiEnhancer) Enhance(ctx context.Context, prompt, contextHint string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", fmt.Errorf("prompt is required")
	}
	refined, err := g.client.GenerateText(ctx, buildEnhancePayload(trimmed, strings.TrimSpace(contextHint)))
	if err != nil {
		return "", err
	}
	cleaned := cleanModelText(refined)
	if cleaned == "" {
		return "", fmt.Errorf("empty enhancement")
	}
	return cleaned, nil
}

func (g *GeminiEnhancer) SuggestNegative(ctx context.Context, prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", fmt.Errorf("prompt is required")
	}
	suggestion, err := g.client.GenerateText(ctx, buildNegativePayload(trimmed))
	if err != nil {
		return "", err
	}
	cleaned := cleanModelText(suggestion)
	if cleaned == "" {
		return "", fmt.Errorf("empty suggestion")
	}
	return cleaned, nil
}

var _ Enhancer = (*GeminiEnhancer)(nil)

func buildEnhancePayload(prompt, contextHint string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an expert prompt writer for an AI image generator. ")
	sb.WriteString("Rewrite the following prompt into a single vivid, concrete image-generation prompt. ")
	sb.WriteString("Respond with the rewritten prompt only, no preamble, no quotes, no markdown.")
	fmt.Fprintf(sb, "\nPrompt: %s", prompt)
	if contextHint != "" {
		fmt.Fprintf(sb, "\nThe subject will be composed into this scene: %s", contextHint)
	}
	return sb.String()
}

func buildNegativePayload(prompt string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an expert prompt writer for an AI image generator. ")
	sb.WriteString("Write a short comma-separated negative prompt (artifacts, styles and defects to avoid) for the image prompt below. ")
	sb.WriteString("Respond with the negative prompt only, no preamble, no quotes, no markdown.")
	fmt.Fprintf(sb, "\nPrompt: %s", prompt)
	return sb.String()
}

// cleanModelText strips the code fences and stray quoting models tend to wrap
// plain-text answers in.
func cleanModelText(raw string) string {
	text := trimCodeFence(strings.TrimSpace(raw))
	text = strings.Trim(text, "\"'")
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```text")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
