package domain

import "errors"

var (
	ErrEmptyPrompt            = errors.New("empty prompt")
	ErrNoTemplateSelected     = errors.New("no template selected")
	ErrNoDisplayedTemplate    = errors.New("no template to confirm")
	ErrGenerationInFlight     = errors.New("generation already in flight")
	ErrSessionNotFound        = errors.New("session not found")
	ErrNoVariations           = errors.New("no variations produced")
	ErrUndecodableImage       = errors.New("image cannot be decoded")
	ErrNegativePadding        = errors.New("padding must be non-negative")
	ErrNoProvidersConfigured  = errors.New("no stock providers configured")
	ErrAllProvidersFailed     = errors.New("every stock provider failed")
	ErrEmptyGenerationResult  = errors.New("generation returned no image")
	ErrHistoryEntryNotFound   = errors.New("history entry not found")
	ErrUnsupportedAspectRatio = errors.New("unsupported aspect ratio")
)
