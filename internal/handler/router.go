package handler

import (
	"net/http"

	"chest-rewards-api/internal/logging"
	"chest-rewards-api/internal/metrics"
	"chest-rewards-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	Log            logrus.FieldLogger
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	AllowedOrigins []string
	MetricsPath    string // empty disables the metrics endpoint
	TracingService string // empty disables the tracing middleware
}

// NewRouter mounts every route of the API.
func NewRouter(h *Handler, authn middleware.Authenticator, opts RouterOptions) *chi.Mux {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware (order matters)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.RequestLogger(opts.Log))
	r.Use(chimw.Recoverer)
	if opts.MetricsPath != "" {
		r.Use(metrics.InstrumentHandler)
	}
	if opts.TracingService != "" {
		r.Use(middleware.TracingMiddleware(opts.TracingService))
	}
	if opts.RateLimiter != nil {
		r.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	if opts.MetricsPath != "" {
		r.Method(http.MethodGet, opts.MetricsPath, metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authn, opts.Log))

		r.Route("/chest", func(r chi.Router) {
			r.Get("/state", h.State)
			r.Post("/open", h.Open)
			r.Post("/open-multi", h.OpenMulti)
			r.Get("/feed", h.Feed)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.Inventory)
			r.Post("/claim", h.Claim)
			r.Post("/convert", h.Convert)
			r.Post("/convert-many", h.ConvertMany)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/chest/boost", h.SetBoost)
			r.Post("/chest/pet-values", h.SetPetValues)
			r.Post("/chest/reset-rewards", h.ResetRewards)
			r.Get("/features", h.ListFeatures)
			r.Post("/features", h.SetFeature)
		})
	})

	return r
}
