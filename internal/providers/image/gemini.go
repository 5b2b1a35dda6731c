package image

import (
	"context"

	"composer/internal/providers/genai"
)

// GeminiGenerator adapts the Gemini client to the Generator contract.
type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) ([]Asset, error) {
	inputs := make([]genai.ImageInput, 0, len(req.Inputs))
	for _, input := range req.Inputs {
		inputs = append(inputs, genai.ImageInput{Data: input.Data, MIME: input.MIME})
	}

	assets, err := g.client.GenerateImages(ctx, genai.ImageRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		Count:          req.Count,
		RequestID:      req.RequestID,
		Inputs:         inputs,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Asset, len(assets))
	for i, asset := range assets {
		out[i] = Asset{
			URL:    asset.URL,
			Format: asset.Format,
			Width:  asset.Width,
			Height: asset.Height,
			Data:   asset.Data,
		}
	}
	return out, nil
}

var _ Generator = (*GeminiGenerator)(nil)
