// Package http exposes the ledger as a JSON API. Authentication is a
// Bearer access token; every route below /api (except auth) runs with
// the verified user id in context.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moneypal/internal/auth"
	"moneypal/internal/log"
	"moneypal/internal/middleware/ratelimit"
	"moneypal/internal/services"
)

type Server struct {
	auth         *auth.Service
	tokens       *auth.TokenProvider
	transactions *services.TransactionService
	categories   *services.CategoryService
	buckets      *services.BucketService
	dashboard    *services.DashboardService
	logger       *log.Logger
	authLimiter  *ratelimit.Limiter
}

func NewServer(
	authSvc *auth.Service,
	tokens *auth.TokenProvider,
	transactions *services.TransactionService,
	categories *services.CategoryService,
	buckets *services.BucketService,
	dashboard *services.DashboardService,
	logger *log.Logger,
) *Server {
	return &Server{
		auth:         authSvc,
		tokens:       tokens,
		transactions: transactions,
		categories:   categories,
		buckets:      buckets,
		dashboard:    dashboard,
		logger:       logger,
		authLimiter:  ratelimit.New(ratelimit.DefaultConfig()),
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(log.RequestLogger(s.logger))
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(s.authLimiter.Middleware(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests, slow down"})
			}))
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(s.tokens))

			r.Get("/me", s.handleMe)
			r.Put("/me/currency", s.handleUpdateCurrency)

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Post("/", s.handleCreateTransaction)
				r.Get("/{id}", s.handleGetTransaction)
				r.Put("/{id}", s.handleUpdateTransaction)
				r.Delete("/{id}", s.handleDeleteTransaction)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", s.handleListCategories)
				r.Post("/", s.handleCreateCategory)
				r.Get("/{id}", s.handleGetCategory)
				r.Put("/{id}", s.handleUpdateCategory)
				r.Delete("/{id}", s.handleDeleteCategory)
			})

			r.Route("/buckets", func(r chi.Router) {
				r.Get("/", s.handleListBuckets)
				r.Post("/", s.handleCreateBucket)
				r.Get("/{id}", s.handleGetBucket)
				r.Put("/{id}", s.handleUpdateBucket)
				r.Delete("/{id}", s.handleArchiveBucket)
				r.Post("/{id}/mark-spent", s.handleMarkBucketSpent)
			})

			r.Get("/dashboard/summary", s.handleDashboardSummary)
		})
	})

	return r
}

// NewHTTPServer wraps the handler in an http.Server with sane
// timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
