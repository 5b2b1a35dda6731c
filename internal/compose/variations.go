package compose

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"composer/internal/domain"
	"composer/internal/providers/image"
)

// DefaultVariationCount is the number of alternatives requested when the
// caller does not specify one.
const DefaultVariationCount = 2

const variationPrompt = "Create a subtly different alternative version of this image. " +
	"Keep the subject, composition and overall style; vary lighting, angle or background details."

// VariationEngine fires N independent, identically-parameterized generation
// calls against one base image and joins only the successful outcomes.
type VariationEngine struct {
	generator image.Generator
	logger    zerolog.Logger
}

func NewVariationEngine(generator image.Generator, logger zerolog.Logger) *VariationEngine {
	return &VariationEngine{generator: generator, logger: logger}
}

// Produce returns the successful subset of count variation calls. A partial
// success is not an error; only a wholly empty join is surfaced, as
// domain.ErrNoVariations.
func (e *VariationEngine) Produce(ctx context.Context, base []byte, mime, negativePrompt string, count int) ([]domain.ImageRef, error) {
	if len(base) == 0 {
		return nil, domain.ErrUndecodableImage
	}
	if count <= 0 {
		count = DefaultVariationCount
	}

	// One slot per call; workers always return nil so individual failures
	// never short-circuit the join.
	perCall := make([][]domain.ImageRef, count)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			assets, err := e.generator.Generate(gctx, image.GenerateRequest{
				Prompt:         variationPrompt,
				NegativePrompt: negativePrompt,
				Count:          1,
				RequestID:      uuid.NewString(),
				Inputs:         []image.Input{{Role: image.RoleBase, Data: base, MIME: mime}},
			})
			if err != nil {
				e.logger.Warn().Err(err).Int("slot", i).Msg("compose: variation call failed")
				return nil
			}
			perCall[i] = toImageRefs(assets)
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.ImageRef
	for _, refs := range perCall {
		out = append(out, refs...)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoVariations
	}
	return out, nil
}
