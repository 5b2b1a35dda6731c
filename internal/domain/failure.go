package domain

import (
	"context"
	"errors"
	"strings"
)

// FailureCategory buckets generation failures for user-facing display.
type FailureCategory string

const (
	FailureValidation        FailureCategory = "validation"
	FailureInvalidCredential FailureCategory = "invalid_credential"
	FailureSafetyBlocked     FailureCategory = "safety_blocked"
	FailureQuotaExceeded     FailureCategory = "quota_exceeded"
	FailureTimeout           FailureCategory = "timeout"
	FailureNetwork           FailureCategory = "network"
	FailureEmptyResult       FailureCategory = "empty_result"
	FailureUnknown           FailureCategory = "unknown"
)

// Message returns the user-facing text for the category.
func (c FailureCategory) Message() string {
	switch c {
	case FailureValidation:
		return "The request is missing required input."
	case FailureInvalidCredential:
		return "The generation service rejected the configured API key."
	case FailureSafetyBlocked:
		return "The prompt was blocked by the provider's safety policy."
	case FailureQuotaExceeded:
		return "The generation quota has been exhausted. Try again later."
	case FailureTimeout:
		return "The generation service took too long to respond."
	case FailureNetwork:
		return "Could not reach the generation service."
	case FailureEmptyResult:
		return "No image was produced. Adjust the prompt and retry."
	default:
		return "Image generation failed for an unknown reason."
	}
}

// Retryable reports whether a manual resubmission is worth suggesting.
func (c FailureCategory) Retryable() bool {
	switch c {
	case FailureEmptyResult, FailureTimeout, FailureNetwork:
		return true
	default:
		return false
	}
}

// ClassifyFailure inspects an upstream generation error and maps it to a
// category. Validation sentinels are resolved before any external call, so
// they are matched first; everything else falls back to message inspection
// because upstream error shapes are not stable across providers.
func ClassifyFailure(err error) FailureCategory {
	if err == nil {
		return FailureUnknown
	}
	switch {
	case errors.Is(err, ErrEmptyPrompt),
		errors.Is(err, ErrNoTemplateSelected),
		errors.Is(err, ErrUndecodableImage),
		errors.Is(err, ErrNegativePadding),
		errors.Is(err, ErrUnsupportedAspectRatio):
		return FailureValidation
	case errors.Is(err, ErrEmptyGenerationResult):
		return FailureEmptyResult
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case msg == "":
		return FailureUnknown
	case strings.Contains(msg, "api key") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "unauthenticated") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "status 401") ||
		strings.Contains(msg, "status 403"):
		return FailureInvalidCredential
	case strings.Contains(msg, "safety") ||
		strings.Contains(msg, "blocked") ||
		strings.Contains(msg, "prohibited"):
		return FailureSafetyBlocked
	case strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "status 429"):
		return FailureQuotaExceeded
	case strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded"):
		return FailureTimeout
	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "service unavailable") ||
		strings.Contains(msg, "status 503"):
		return FailureNetwork
	default:
		return FailureUnknown
	}
}
