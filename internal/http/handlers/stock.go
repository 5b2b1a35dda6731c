package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"composer/internal/domain"
	"composer/internal/middleware"
	"composer/internal/providers/stock"
)

type promoteRequest struct {
	URL string `json:"url"`
}

// requestLocale combines the detected language and country into the BCP 47
// tag the providers use for regional ranking.
func requestLocale(r *http.Request) string {
	locale := middleware.LocaleFromContext(r.Context())
	if country := middleware.CountryFromContext(r.Context()); country != "" {
		return locale + "-" + country
	}
	return locale
}

func (a *App) StockSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "q is required")
		return
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	q := stock.Query{
		Term:        term,
		Orientation: r.URL.Query().Get("orientation"),
		Color:       r.URL.Query().Get("color"),
		Locale:      requestLocale(r),
		PerPage:     perPage,
	}

	results, err := a.Stock.Search(r.Context(), q)
	if errors.Is(err, domain.ErrNoProvidersConfigured) {
		a.error(w, http.StatusServiceUnavailable, "no_providers", "no stock providers configured")
		return
	}
	if errors.Is(err, domain.ErrAllProvidersFailed) {
		a.Logger.Warn().Str("term", term).Msg("handlers: every stock provider failed")
		a.error(w, http.StatusBadGateway, "providers_failed", "every stock provider failed")
		return
	}
	if err != nil {
		a.Logger.Warn().Err(err).Str("term", term).Msg("handlers: stock search failed")
		a.error(w, http.StatusBadGateway, "stock_failed", "stock search failed")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"results": results})
}

func (a *App) StockPromote(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "url is required")
		return
	}
	dataURL, err := a.Stock.Promote(r.Context(), req.URL)
	if err != nil {
		a.Logger.Warn().Err(err).Str("url", req.URL).Msg("handlers: stock promote failed")
		a.error(w, http.StatusBadGateway, "promote_failed", "could not fetch the image")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"data_url": dataURL})
}
