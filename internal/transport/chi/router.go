package chi

import (
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/kailas-cloud/animedex/internal/metrics"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	AllowedOrigins []string
	// RateLimitRequests per RateLimitWindow per client IP on /discover. 0 disables it.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// APIKeys guard /admin. Without keys the admin routes are not mounted.
	APIKeys []string
}

// NewRouter wires the middleware chain and routes.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	r := gochi.NewRouter()
	r.Use(Recoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware())

	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/anime/{id}", s.GetAnime)

	r.Group(func(r gochi.Router) {
		if cfg.RateLimitRequests > 0 {
			window := cfg.RateLimitWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(cfg.RateLimitRequests, window))
		}
		r.Post("/discover", s.Discover)
		r.Post("/discover/", s.Discover)
	})

	if s.ingest != nil && hasAPIKeys(cfg.APIKeys) {
		r.Route("/admin", func(r gochi.Router) {
			r.Use(BearerAuthMiddleware(cfg.APIKeys))
			r.Post("/reload", s.Reload)
		})
	}

	return r
}
