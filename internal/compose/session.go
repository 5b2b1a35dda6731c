// Package compose drives the generation pipeline: per-session state machines
// for the template, final and direct modes, the edit submission flow, and the
// variation engine.
package compose

import (
	"composer/internal/domain"
)

// State is the explicit session state. A session is in exactly one state;
// images exist only in StateSucceeded and a failure only in StateFailed, so
// impossible combinations (pending with an error set) cannot be represented.
type State string

const (
	StateIdle      State = "idle"
	StatePending   State = "pending"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Failure is the user-facing outcome of a failed submission.
type Failure struct {
	Category domain.FailureCategory `json:"category"`
	Message  string                 `json:"message"`
}

// Session is an immutable snapshot of one generation session.
type Session struct {
	ID             string
	Mode           domain.GenerationMode
	State          State
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Images         []domain.ImageRef
	Failure        *Failure

	// DisplayedTemplate is whatever is currently previewed; SelectedTemplate
	// is the one pointer stage-2 generation consumes. They diverge until the
	// user explicitly confirms.
	DisplayedTemplate *domain.ImageRef
	SelectedTemplate  *domain.ImageRef
}

// session is the mutable record owned by the Orchestrator.
type session struct {
	id             string
	mode           domain.GenerationMode
	state          State
	prompt         string
	negativePrompt string
	aspectRatio    string
	images         []domain.ImageRef
	failure        *Failure

	displayedTemplate *domain.ImageRef
	selectedTemplate  *domain.ImageRef
}

func (s *session) snapshot() Session {
	snap := Session{
		ID:             s.id,
		Mode:           s.mode,
		State:          s.state,
		Prompt:         s.prompt,
		NegativePrompt: s.negativePrompt,
		AspectRatio:    s.aspectRatio,
	}
	if len(s.images) > 0 {
		snap.Images = make([]domain.ImageRef, len(s.images))
		copy(snap.Images, s.images)
	}
	if s.failure != nil {
		f := *s.failure
		snap.Failure = &f
	}
	if s.displayedTemplate != nil {
		ref := *s.displayedTemplate
		snap.DisplayedTemplate = &ref
	}
	if s.selectedTemplate != nil {
		ref := *s.selectedTemplate
		snap.SelectedTemplate = &ref
	}
	return snap
}

// fail moves the session to StateFailed with the given category, clearing any
// previous result. No partial images survive a failure.
func (s *session) fail(category domain.FailureCategory) {
	s.state = StateFailed
	s.images = nil
	s.failure = &Failure{Category: category, Message: category.Message()}
}

// succeed moves the session to StateSucceeded with the result images.
func (s *session) succeed(images []domain.ImageRef) {
	s.state = StateSucceeded
	s.failure = nil
	s.images = images
}

// promptCategory maps a generation mode to its recent-prompt list. The final
// mode submits the subject prompt, so it records under the subject category.
func promptCategory(mode domain.GenerationMode) domain.PromptCategory {
	switch mode {
	case domain.ModeTemplate:
		return domain.PromptCategoryTemplate
	case domain.ModeFinal:
		return domain.PromptCategorySubject
	default:
		return domain.PromptCategoryDirect
	}
}
