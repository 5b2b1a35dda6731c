package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// addChiURLParam injects a chi route parameter when a handler is invoked
// directly instead of through the router.
func addChiURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
