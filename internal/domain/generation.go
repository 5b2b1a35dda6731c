package domain

import (
	"strings"
	"time"
)

// GenerationMode identifies which pipeline stage a session drives.
type GenerationMode string

const (
	// ModeTemplate generates the background layout (stage 1).
	ModeTemplate GenerationMode = "template"
	// ModeFinal composes the final image on top of a confirmed template (stage 2).
	ModeFinal GenerationMode = "final"
	// ModeDirect is single-stage text-to-image.
	ModeDirect GenerationMode = "direct"
)

// ParseGenerationMode sanitizes free-form input into a supported mode.
func ParseGenerationMode(mode string) (GenerationMode, bool) {
	switch GenerationMode(strings.ToLower(strings.TrimSpace(mode))) {
	case ModeTemplate:
		return ModeTemplate, true
	case ModeFinal:
		return ModeFinal, true
	case ModeDirect:
		return ModeDirect, true
	default:
		return "", false
	}
}

// ImageRef is the normalized representation of a generated or selected image.
type ImageRef struct {
	URL    string
	MIME   string
	Data   []byte
	Width  int
	Height int
}

// Empty reports whether the reference carries neither bytes nor a URL.
func (r ImageRef) Empty() bool {
	return len(r.Data) == 0 && strings.TrimSpace(r.URL) == ""
}

// HistoryEntry records one successful generation. Entries are immutable once
// stored; the history collection only prepends, deletes by id, or clears.
type HistoryEntry struct {
	ID             string
	Kind           GenerationMode
	Image          ImageRef
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	CreatedAt      time.Time
}

// PromptCategory names a recent-prompt list.
type PromptCategory string

const (
	PromptCategoryTemplate PromptCategory = "template"
	PromptCategorySubject  PromptCategory = "subject"
	PromptCategoryDirect   PromptCategory = "direct"
)

// ParsePromptCategory sanitizes free-form input into a supported category.
func ParsePromptCategory(category string) (PromptCategory, bool) {
	switch PromptCategory(strings.ToLower(strings.TrimSpace(category))) {
	case PromptCategoryTemplate:
		return PromptCategoryTemplate, true
	case PromptCategorySubject:
		return PromptCategorySubject, true
	case PromptCategoryDirect:
		return PromptCategoryDirect, true
	default:
		return "", false
	}
}
