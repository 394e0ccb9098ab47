package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aurelia-labs/docq/internal/api"
	"github.com/aurelia-labs/docq/internal/api/handlers"
	"github.com/aurelia-labs/docq/internal/api/middleware"
)

type RouterConfig struct {
	TokenValidator  middleware.TokenValidator
	DocumentHandler *handlers.DocumentHandler
	QAHandler       *handlers.QAHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.TokenValidator))

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", cfg.DocumentHandler.Ingest)
			r.Get("/", cfg.DocumentHandler.List)
			r.Get("/{id}", cfg.DocumentHandler.Get)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
			r.Post("/{id}/summary", cfg.DocumentHandler.Summarize)
		})

		r.Post("/ask", cfg.QAHandler.Ask)
	})

	return r
}
