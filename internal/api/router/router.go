package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/vendor-inquiry/internal/http/middleware"
	"github.com/wolfman30/vendor-inquiry/internal/inquiries"
	"github.com/wolfman30/vendor-inquiry/pkg/logging"
)

// ReadinessCheck reports whether a backing service is reachable.
type ReadinessCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	InquiriesHandler   *inquiries.Handler
	StatsHandler       http.Handler // optional, needs a database
	MetricsHandler     http.Handler // optional
	RateLimiter        httpmiddleware.Limiter
	CORSAllowedOrigins []string
	AdminAuthSecret    string

	ReadinessChecks map[string]ReadinessCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", healthCheck)
	r.Get("/ready", readinessCheck(cfg.ReadinessChecks))
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/categories", cfg.InquiriesHandler.ListCategories)
		api.Group(func(submit chi.Router) {
			if cfg.RateLimiter != nil {
				submit.Use(httpmiddleware.RateLimit(cfg.RateLimiter, cfg.Logger))
			}
			submit.Post("/inquiries", cfg.InquiriesHandler.CreateInquiry)
		})
	})

	// Review endpoints stay unmounted until a signing secret is configured.
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/inquiries", cfg.InquiriesHandler.ListInquiries)
			if cfg.StatsHandler != nil {
				admin.Method(http.MethodGet, "/inquiries/stats", cfg.StatsHandler)
			}
			admin.Get("/inquiries/{inquiryID}", cfg.InquiriesHandler.GetInquiry)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readinessCheck(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "unavailable"
		}
		writeJSON(w, status, map[string]any{"status": overall, "checks": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
