package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"composer/internal/domain"
	"composer/pkg/zip"
)

type historyEntryResponse struct {
	ID             string       `json:"id"`
	Kind           string       `json:"kind"`
	Image          imagePayload `json:"image"`
	Prompt         string       `json:"prompt"`
	NegativePrompt string       `json:"negative_prompt,omitempty"`
	AspectRatio    string       `json:"aspect_ratio,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	entries := a.Store.History()
	out := make([]historyEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, historyEntryResponse{
			ID:             entry.ID,
			Kind:           string(entry.Kind),
			Image:          toImagePayload(entry.Image),
			Prompt:         entry.Prompt,
			NegativePrompt: entry.NegativePrompt,
			AspectRatio:    entry.AspectRatio,
			CreatedAt:      entry.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"history": out})
}

func (a *App) HistoryDelete(w http.ResponseWriter, r *http.Request) {
	err := a.Store.DeleteHistory(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrHistoryEntryNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "history entry not found")
		return
	}
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) HistoryClear(w http.ResponseWriter, r *http.Request) {
	a.Store.ClearHistory(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// HistoryExport streams every history image as one zip archive.
func (a *App) HistoryExport(w http.ResponseWriter, r *http.Request) {
	entries := a.Store.History()
	zipEntries := make([]zip.Entry, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Image.Data) == 0 {
			continue
		}
		zipEntries = append(zipEntries, zip.Entry{
			Name: entry.ID + zip.ExtensionForMIME(entry.Image.MIME),
			MIME: entry.Image.MIME,
			Data: entry.Image.Data,
		})
	}
	if len(zipEntries) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no exportable images in history")
		return
	}
	archive, err := zip.Archive(zipEntries)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "archive failed")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="history.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) PromptsRecent(w http.ResponseWriter, r *http.Request) {
	category, ok := domain.ParsePromptCategory(r.URL.Query().Get("category"))
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported category")
		return
	}
	prompts := a.Store.RecentPrompts(category)
	if prompts == nil {
		prompts = []string{}
	}
	a.json(w, http.StatusOK, map[string]any{"prompts": prompts})
}
