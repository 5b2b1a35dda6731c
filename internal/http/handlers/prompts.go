package handlers

import (
	"net/http"
	"strings"

	"composer/internal/middleware"
)

type enhanceRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
}

type negativeRequest struct {
	Prompt string `json:"prompt"`
}

func (a *App) PromptEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if !a.decode(w, r, &req) {
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	hint := req.Context
	if locale := middleware.LocaleFromContext(r.Context()); locale != "" && locale != "en" {
		hint = strings.TrimSpace(hint + " (answer in English; the user writes in " + locale + ")")
	}

	enhanced, err := a.Enhancer.Enhance(r.Context(), prompt, hint)
	if err != nil {
		// Enhancement is best effort; a failure hands back the original text.
		a.Logger.Warn().Err(err).Msg("handlers: prompt enhancement failed")
		a.json(w, http.StatusOK, map[string]string{"prompt": prompt})
		return
	}
	a.json(w, http.StatusOK, map[string]string{"prompt": enhanced})
}

func (a *App) PromptNegative(w http.ResponseWriter, r *http.Request) {
	var req negativeRequest
	if !a.decode(w, r, &req) {
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt is required")
		return
	}

	negative, err := a.Enhancer.SuggestNegative(r.Context(), prompt)
	if err != nil {
		// Best effort as well; an empty suggestion leaves the field untouched.
		a.Logger.Warn().Err(err).Msg("handlers: negative prompt suggestion failed")
		a.json(w, http.StatusOK, map[string]string{"negative_prompt": ""})
		return
	}
	a.json(w, http.StatusOK, map[string]string{"negative_prompt": negative})
}
