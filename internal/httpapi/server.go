// Package httpapi exposes the REST surface: auth, sourcing, conversion,
// the pipeline board, and the investor feed.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jaimenoain/ceeq/internal/auth"
	"github.com/jaimenoain/ceeq/internal/convert"
	"github.com/jaimenoain/ceeq/internal/dashboard"
	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/pipeline"
	"github.com/jaimenoain/ceeq/internal/session"
	"github.com/jaimenoain/ceeq/internal/sourcing"
	"github.com/jaimenoain/ceeq/internal/store"
)

// Server wires services to routes.
type Server struct {
	store      store.Store
	sessions   session.Store
	auth       *auth.Service
	converter  *convert.Converter
	pipeline   *pipeline.Service
	sourcing   *sourcing.Service
	dashboard  *dashboard.Service
	corsOrigin string
	logins     *loginLimiter
}

type Options struct {
	Store      store.Store
	Sessions   session.Store
	Auth       *auth.Service
	Converter  *convert.Converter
	Pipeline   *pipeline.Service
	Sourcing   *sourcing.Service
	Dashboard  *dashboard.Service
	CORSOrigin string
}

func NewServer(opts Options) *Server {
	return &Server{
		store:      opts.Store,
		sessions:   opts.Sessions,
		auth:       opts.Auth,
		converter:  opts.Converter,
		pipeline:   opts.Pipeline,
		sourcing:   opts.Sourcing,
		dashboard:  opts.Dashboard,
		corsOrigin: opts.CORSOrigin,
		logins:     newLoginLimiter(),
	}
}

// Routes builds the router. All /api routes resolve sessions; guards
// per subtree decide who gets in.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	origin := s.corsOrigin
	if origin == "" {
		origin = "*"
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: origin != "*",
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)

		r.Route("/auth", func(r chi.Router) {
			r.With(s.logins.middleware).Post("/login", s.handleLogin)
			r.Post("/signup", s.handleRegister)
			r.Post("/logout", s.handleLogout)
		})
		r.Post("/onboarding", s.handleRegister)
		r.With(requireAuth).Get("/session", s.handleSession)
		r.Get("/route-check", s.handleRouteCheck)

		r.Group(func(r chi.Router) {
			r.Use(requireWorkspace(model.WorkspaceSearcher))

			r.Route("/sourcing", func(r chi.Router) {
				r.Get("/universe", s.handleUniverse)
				r.Post("/import", s.handleImport)
				r.Post("/bulk-status", s.handleBulkStatus)
			})
			r.Post("/targets/{targetID}/convert", s.handleConvert)

			r.Get("/pipeline", s.handleBoard)
			r.Route("/deals/{dealID}", func(r chi.Router) {
				r.Post("/stage", s.handleMoveDeal)
				r.Post("/archive", s.handleArchiveDeal)
				r.Patch("/financials", s.handleFinancials)
			})
			r.Patch("/companies/{companyID}/firmographics", s.handleFirmographics)
			r.Get("/dashboard/searcher", s.handleSearcherDashboard)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireWorkspace(model.WorkspaceInvestor))
			r.Get("/investor/feed", s.handleInvestorFeed)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
