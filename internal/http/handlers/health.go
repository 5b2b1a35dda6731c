package handlers

import "net/http"

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"stock_configured": a.Stock != nil && a.Stock.Configured(),
	})
}
