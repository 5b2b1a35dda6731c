package compose

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"composer/internal/domain"
	"composer/internal/mask"
	"composer/internal/providers/image"
	"composer/internal/recency"
)

// Input is one generation submission.
type Input struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	// StyleImage optionally conditions final composition on a reference image.
	StyleImage []byte
	StyleMIME  string
}

// EditInput is one in-paint or out-paint submission against a base image.
type EditInput struct {
	Prompt         string
	NegativePrompt string
	Base           []byte
	Mode           mask.Mode
	Strokes        []mask.Stroke
	Padding        mask.Padding
}

// Orchestrator owns the generation sessions. Each session admits at most one
// in-flight request: a submission against a pending session is refused at the
// boundary, never queued. Successful generations flow into the recency store
// as a side effect, using the prompt that was actually submitted.
type Orchestrator struct {
	mu       sync.Mutex
	sessions map[string]*session

	generator image.Generator
	store     *recency.Store
	logger    zerolog.Logger
	now       func() time.Time
}

func NewOrchestrator(generator image.Generator, store *recency.Store, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions:  make(map[string]*session),
		generator: generator,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateSession opens a fresh idle session for the given mode.
func (o *Orchestrator) CreateSession(mode domain.GenerationMode) Session {
	s := &session{
		id:    uuid.NewString(),
		mode:  mode,
		state: StateIdle,
	}
	o.mu.Lock()
	o.sessions[s.id] = s
	o.mu.Unlock()
	return s.snapshot()
}

// Session returns a snapshot of the session.
func (o *Orchestrator) Session(id string) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[id]
	if !ok {
		return Session{}, domain.ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// CloseSession destroys the session. Sessions are ephemeral: everything but
// history and recent prompts dies with them.
func (o *Orchestrator) CloseSession(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(o.sessions, id)
	return nil
}

// Submit runs one generation for the session. Validation failures transition
// the session to failed without dispatching any external call; upstream
// failures are classified and resolved at the session boundary, so the
// returned error is non-nil only for refusals (unknown session, in-flight)
// and validation.
func (o *Orchestrator) Submit(ctx context.Context, id string, in Input) (Session, error) {
	o.mu.Lock()
	s, ok := o.sessions[id]
	if !ok {
		o.mu.Unlock()
		return Session{}, domain.ErrSessionNotFound
	}
	if s.state == StatePending {
		snap := s.snapshot()
		o.mu.Unlock()
		return snap, domain.ErrGenerationInFlight
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		s.fail(domain.FailureValidation)
		snap := s.snapshot()
		o.mu.Unlock()
		return snap, domain.ErrEmptyPrompt
	}

	var template *domain.ImageRef
	if s.mode == domain.ModeFinal {
		if s.selectedTemplate == nil {
			s.fail(domain.FailureValidation)
			snap := s.snapshot()
			o.mu.Unlock()
			return snap, domain.ErrNoTemplateSelected
		}
		ref := *s.selectedTemplate
		template = &ref
	}

	s.state = StatePending
	s.prompt = prompt
	s.negativePrompt = strings.TrimSpace(in.NegativePrompt)
	s.aspectRatio = strings.TrimSpace(in.AspectRatio)
	req := image.GenerateRequest{
		Prompt:         s.prompt,
		NegativePrompt: s.negativePrompt,
		AspectRatio:    s.aspectRatio,
		Count:          1,
		RequestID:      uuid.NewString(),
	}
	o.mu.Unlock()

	if template != nil {
		req.Inputs = append(req.Inputs, image.Input{Role: image.RoleBase, Data: template.Data, MIME: template.MIME})
	}
	if len(in.StyleImage) > 0 {
		req.Inputs = append(req.Inputs, image.Input{Role: image.RoleStyle, Data: in.StyleImage, MIME: in.StyleMIME})
	}

	assets, err := o.generator.Generate(ctx, req)
	return o.applyResult(ctx, id, req, assets, err), nil
}

// SubmitEdit synthesizes the edit mask and runs one generation with the base
// and mask attached. The session walks the same state machine as Submit.
func (o *Orchestrator) SubmitEdit(ctx context.Context, id string, in EditInput) (Session, error) {
	o.mu.Lock()
	s, ok := o.sessions[id]
	if !ok {
		o.mu.Unlock()
		return Session{}, domain.ErrSessionNotFound
	}
	if s.state == StatePending {
		snap := s.snapshot()
		o.mu.Unlock()
		return snap, domain.ErrGenerationInFlight
	}

	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		s.fail(domain.FailureValidation)
		snap := s.snapshot()
		o.mu.Unlock()
		return snap, domain.ErrEmptyPrompt
	}
	o.mu.Unlock()

	// Mask synthesis happens outside the lock; it only touches the payload.
	synth, err := mask.Synthesize(in.Base, in.Mode, mask.Params{Strokes: in.Strokes, Padding: in.Padding})
	if err != nil {
		o.mu.Lock()
		if s, ok := o.sessions[id]; ok {
			s.fail(domain.ClassifyFailure(err))
			snap := s.snapshot()
			o.mu.Unlock()
			return snap, err
		}
		o.mu.Unlock()
		return Session{}, domain.ErrSessionNotFound
	}

	o.mu.Lock()
	s, ok = o.sessions[id]
	if !ok {
		o.mu.Unlock()
		return Session{}, domain.ErrSessionNotFound
	}
	if s.state == StatePending {
		snap := s.snapshot()
		o.mu.Unlock()
		return snap, domain.ErrGenerationInFlight
	}
	s.state = StatePending
	s.prompt = prompt
	s.negativePrompt = strings.TrimSpace(in.NegativePrompt)
	req := image.GenerateRequest{
		Prompt:         s.prompt,
		NegativePrompt: s.negativePrompt,
		AspectRatio:    s.aspectRatio,
		Count:          1,
		RequestID:      uuid.NewString(),
		Inputs: []image.Input{
			{Role: image.RoleBase, Data: synth.Base, MIME: "image/png"},
			{Role: image.RoleMask, Data: synth.Mask, MIME: "image/png"},
		},
	}
	o.mu.Unlock()

	assets, err := o.generator.Generate(ctx, req)
	return o.applyResult(ctx, id, req, assets, err), nil
}

// applyResult finishes the state walk for one dispatched request and fires
// the success side effects.
func (o *Orchestrator) applyResult(ctx context.Context, id string, req image.GenerateRequest, assets []image.Asset, genErr error) Session {
	images := toImageRefs(assets)

	o.mu.Lock()
	s, ok := o.sessions[id]
	if !ok {
		// Session closed while the request was in flight; drop the result.
		o.mu.Unlock()
		return Session{}
	}

	if genErr != nil {
		category := domain.ClassifyFailure(genErr)
		o.logger.Warn().
			Err(genErr).
			Str("session_id", id).
			Str("category", string(category)).
			Msg("compose: generation failed")
		s.fail(category)
		snap := s.snapshot()
		o.mu.Unlock()
		return snap
	}
	if len(images) == 0 {
		s.fail(domain.FailureEmptyResult)
		snap := s.snapshot()
		o.mu.Unlock()
		return snap
	}

	s.succeed(images)
	if s.mode == domain.ModeTemplate {
		// Stage-1 success only moves the preview; the confirmed selection
		// stays untouched until the user re-confirms.
		ref := images[0]
		s.displayedTemplate = &ref
	}
	mode := s.mode
	snap := s.snapshot()
	o.mu.Unlock()

	entries := make([]domain.HistoryEntry, 0, len(images))
	createdAt := o.now()
	for _, img := range images {
		entries = append(entries, domain.HistoryEntry{
			ID:             uuid.NewString(),
			Kind:           mode,
			Image:          img,
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			AspectRatio:    req.AspectRatio,
			CreatedAt:      createdAt,
		})
	}
	o.store.AppendHistory(ctx, entries...)
	o.store.RecordPrompt(ctx, promptCategory(mode), req.Prompt)

	return snap
}

// ConfirmTemplate copies the displayed template into the selected slot. This
// is the only way the stage-2 input ever changes.
func (o *Orchestrator) ConfirmTemplate(id string) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[id]
	if !ok {
		return Session{}, domain.ErrSessionNotFound
	}
	if s.displayedTemplate == nil {
		return s.snapshot(), domain.ErrNoDisplayedTemplate
	}
	ref := *s.displayedTemplate
	s.selectedTemplate = &ref
	return s.snapshot(), nil
}

// SetDisplayedTemplate replaces the previewed template, e.g. with a promoted
// stock image or an edit result. The confirmed selection is not touched.
func (o *Orchestrator) SetDisplayedTemplate(id string, ref domain.ImageRef) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[id]
	if !ok {
		return Session{}, domain.ErrSessionNotFound
	}
	if ref.Empty() {
		return s.snapshot(), domain.ErrUndecodableImage
	}
	s.displayedTemplate = &ref
	return s.snapshot(), nil
}

func toImageRefs(assets []image.Asset) []domain.ImageRef {
	var refs []domain.ImageRef
	for _, asset := range assets {
		if len(asset.Data) == 0 && asset.URL == "" {
			continue
		}
		refs = append(refs, domain.ImageRef{
			URL:    asset.URL,
			MIME:   asset.Format,
			Data:   asset.Data,
			Width:  asset.Width,
			Height: asset.Height,
		})
	}
	return refs
}
