// Package server exposes profiles, analysis runs, and stored reports over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/nichelab/niche-cli/internal/model"
	"github.com/nichelab/niche-cli/internal/pipeline"
	"github.com/nichelab/niche-cli/internal/store"
)

// Runner executes one discovery run. Satisfied by *pipeline.Pipeline; faked
// in handler tests.
type Runner interface {
	Run(ctx context.Context, profile model.FounderProfile, userID, profileID string) (*pipeline.Result, error)
}

// Server routes API requests to the store and the pipeline.
type Server struct {
	store   store.Store
	runner  Runner
	auth    Authenticator
	origins []string
}

// New wires the HTTP surface. corsOrigins lists the allowed browser origins;
// ["*"] permits any.
func New(st store.Store, runner Runner, auth Authenticator, corsOrigins []string) *Server {
	return &Server{store: st, runner: runner, auth: auth, origins: corsOrigins}
}

// Router builds the chi router. /health is open; everything under /api
// requires a bearer token.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(s.authenticate)

		api.Post("/profile", s.handleSaveProfile)
		api.Get("/profile", s.handleGetProfile)
		api.Post("/analyze", s.handleAnalyze)

		api.Get("/reports", s.handleListReports)
		api.Get("/reports/{id}", s.handleGetReport)
		api.Delete("/reports/{id}", s.handleDeleteReport)
		api.Patch("/reports/{id}/milestones", s.handleUpdateMilestones)
	})

	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
