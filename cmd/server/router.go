package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/quizgen-io/quizgen-api/internal/api/middleware"
)

// newRouter assembles the HTTP routes.
func newRouter(app *application) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", app.jobHandler.CreateJob)
		r.Get("/jobs/{id}", app.jobHandler.GetJob)
		r.Post("/jobs/{id}/apply", app.jobHandler.ApplyJob)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/runs", app.adminHandler.RunBatch)
			r.Post("/cleanup", app.adminHandler.Cleanup)
		})
	})

	return r
}
