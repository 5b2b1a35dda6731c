// Package httpapi assembles the chi router for the composition API.
package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"composer/internal/http/handlers"
	"composer/internal/middleware"
)

// Options configures the cross-cutting middleware.
type Options struct {
	AllowedOrigins     []string
	DefaultLocale      string
	CountryLookup      middleware.CountryLookup
	RateLimitPerMinute int
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimitPerMinute > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMinute, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.SessionCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.SessionGet)
			r.Delete("/", app.SessionDelete)
			r.Post("/generate", app.SessionGenerate)
			r.Post("/edit", app.SessionEdit)
			r.Post("/variations", app.SessionVariations)
			r.Post("/confirm-template", app.SessionConfirmTemplate)
			r.Put("/displayed-template", app.SessionSetDisplayedTemplate)
		})
	})

	r.Route("/v1/stock", func(r chi.Router) {
		r.Get("/search", app.StockSearch)
		r.Post("/promote", app.StockPromote)
	})

	r.Route("/v1/history", func(r chi.Router) {
		r.Get("/", app.HistoryList)
		r.Get("/export", app.HistoryExport)
		r.Delete("/", app.HistoryClear)
		r.Delete("/{id}", app.HistoryDelete)
	})

	r.Route("/v1/prompts", func(r chi.Router) {
		r.Get("/recent", app.PromptsRecent)
		r.Post("/enhance", app.PromptEnhance)
		r.Post("/negative", app.PromptNegative)
	})

	return r
}
