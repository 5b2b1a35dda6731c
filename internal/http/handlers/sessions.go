package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"composer/internal/compose"
	"composer/internal/domain"
	"composer/internal/mask"
)

type createSessionRequest struct {
	Mode string `json:"mode"`
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	StyleImage     string `json:"style_image_base64,omitempty"`
	StyleMIME      string `json:"style_mime,omitempty"`
}

type editRequest struct {
	Prompt         string        `json:"prompt"`
	NegativePrompt string        `json:"negative_prompt"`
	Base           string        `json:"base_image_base64"`
	Mode           string        `json:"mode"`
	Strokes        []mask.Stroke `json:"strokes,omitempty"`
	Padding        mask.Padding  `json:"padding,omitempty"`
}

type variationsRequest struct {
	Base           string `json:"base_image_base64"`
	MIME           string `json:"mime"`
	NegativePrompt string `json:"negative_prompt"`
	Count          int    `json:"count"`
}

type displayedTemplateRequest struct {
	Image imagePayload `json:"image"`
}

type imagePayload struct {
	URL    string `json:"url,omitempty"`
	MIME   string `json:"mime,omitempty"`
	Data   string `json:"data_base64,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type sessionResponse struct {
	ID                string           `json:"id"`
	Mode              string           `json:"mode"`
	State             string           `json:"state"`
	Prompt            string           `json:"prompt,omitempty"`
	NegativePrompt    string           `json:"negative_prompt,omitempty"`
	AspectRatio       string           `json:"aspect_ratio,omitempty"`
	Images            []imagePayload   `json:"images,omitempty"`
	Failure           *compose.Failure `json:"failure,omitempty"`
	DisplayedTemplate *imagePayload    `json:"displayed_template,omitempty"`
	SelectedTemplate  *imagePayload    `json:"selected_template,omitempty"`
}

func toImagePayload(ref domain.ImageRef) imagePayload {
	p := imagePayload{URL: ref.URL, MIME: ref.MIME, Width: ref.Width, Height: ref.Height}
	if len(ref.Data) > 0 {
		p.Data = base64.StdEncoding.EncodeToString(ref.Data)
	}
	return p
}

func fromImagePayload(p imagePayload) (domain.ImageRef, error) {
	ref := domain.ImageRef{URL: p.URL, MIME: p.MIME, Width: p.Width, Height: p.Height}
	if p.Data != "" {
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return domain.ImageRef{}, err
		}
		ref.Data = data
	}
	return ref, nil
}

func toSessionResponse(s compose.Session) sessionResponse {
	resp := sessionResponse{
		ID:             s.ID,
		Mode:           string(s.Mode),
		State:          string(s.State),
		Prompt:         s.Prompt,
		NegativePrompt: s.NegativePrompt,
		AspectRatio:    s.AspectRatio,
		Failure:        s.Failure,
	}
	for _, img := range s.Images {
		resp.Images = append(resp.Images, toImagePayload(img))
	}
	if s.DisplayedTemplate != nil {
		p := toImagePayload(*s.DisplayedTemplate)
		resp.DisplayedTemplate = &p
	}
	if s.SelectedTemplate != nil {
		p := toImagePayload(*s.SelectedTemplate)
		resp.SelectedTemplate = &p
	}
	return resp
}

func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !a.decode(w, r, &req) {
		return
	}
	mode, ok := domain.ParseGenerationMode(req.Mode)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported mode")
		return
	}
	snap := a.Orchestrator.CreateSession(mode)
	a.json(w, http.StatusCreated, toSessionResponse(snap))
}

func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Orchestrator.Session(chi.URLParam(r, "id"))
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	a.json(w, http.StatusOK, toSessionResponse(snap))
}

func (a *App) SessionDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Orchestrator.CloseSession(chi.URLParam(r, "id")); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) SessionGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !a.decode(w, r, &req) {
		return
	}
	in := compose.Input{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		StyleMIME:      req.StyleMIME,
	}
	if req.StyleImage != "" {
		data, err := base64.StdEncoding.DecodeString(req.StyleImage)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "style image is not valid base64")
			return
		}
		in.StyleImage = data
	}

	ctx, cancel := a.generationContext(r)
	defer cancel()
	snap, err := a.Orchestrator.Submit(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		a.submitError(w, snap, err)
		return
	}
	a.json(w, http.StatusOK, toSessionResponse(snap))
}

func (a *App) SessionEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !a.decode(w, r, &req) {
		return
	}
	base, err := base64.StdEncoding.DecodeString(req.Base)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "base image is not valid base64")
		return
	}
	mode := mask.Mode(req.Mode)
	if mode != mask.ModeInpaint && mode != mask.ModeOutpaint {
		a.error(w, http.StatusBadRequest, "bad_request", "mode must be inpaint or outpaint")
		return
	}

	ctx, cancel := a.generationContext(r)
	defer cancel()
	snap, err := a.Orchestrator.SubmitEdit(ctx, chi.URLParam(r, "id"), compose.EditInput{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Base:           base,
		Mode:           mode,
		Strokes:        req.Strokes,
		Padding:        req.Padding,
	})
	if err != nil {
		a.submitError(w, snap, err)
		return
	}
	a.json(w, http.StatusOK, toSessionResponse(snap))
}

func (a *App) SessionConfirmTemplate(w http.ResponseWriter, r *http.Request) {
	snap, err := a.Orchestrator.ConfirmTemplate(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, domain.ErrNoDisplayedTemplate):
		a.error(w, http.StatusConflict, "no_displayed_template", "no template is currently displayed")
	case err != nil:
		a.error(w, http.StatusInternalServerError, "internal", "confirm failed")
	default:
		a.json(w, http.StatusOK, toSessionResponse(snap))
	}
}

func (a *App) SessionSetDisplayedTemplate(w http.ResponseWriter, r *http.Request) {
	var req displayedTemplateRequest
	if !a.decode(w, r, &req) {
		return
	}
	ref, err := fromImagePayload(req.Image)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "image data is not valid base64")
		return
	}
	snap, err := a.Orchestrator.SetDisplayedTemplate(chi.URLParam(r, "id"), ref)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, domain.ErrUndecodableImage):
		a.error(w, http.StatusBadRequest, "bad_request", "image payload is empty")
	case err != nil:
		a.error(w, http.StatusInternalServerError, "internal", "update failed")
	default:
		a.json(w, http.StatusOK, toSessionResponse(snap))
	}
}

func (a *App) SessionVariations(w http.ResponseWriter, r *http.Request) {
	var req variationsRequest
	if !a.decode(w, r, &req) {
		return
	}
	base, err := base64.StdEncoding.DecodeString(req.Base)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "base image is not valid base64")
		return
	}

	count := req.Count
	if count <= 0 {
		count = a.VariationCount
	}

	ctx, cancel := a.generationContext(r)
	defer cancel()
	refs, err := a.Variations.Produce(ctx, base, req.MIME, req.NegativePrompt, count)
	switch {
	case errors.Is(err, domain.ErrUndecodableImage):
		a.error(w, http.StatusBadRequest, "bad_request", "base image is required")
	case errors.Is(err, domain.ErrNoVariations):
		a.error(w, http.StatusBadGateway, "no_variations", "every variation call failed")
	case err != nil:
		a.error(w, http.StatusInternalServerError, "internal", "variations failed")
	default:
		out := make([]imagePayload, 0, len(refs))
		for _, ref := range refs {
			out = append(out, toImagePayload(ref))
		}
		a.json(w, http.StatusOK, map[string]any{"variations": out})
	}
}
