package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/sstove-api/internal/auth"
	"github.com/redmonkez12/sstove-api/internal/config"
	"github.com/redmonkez12/sstove-api/internal/dish"
	"github.com/redmonkez12/sstove-api/internal/logging"
	"github.com/redmonkez12/sstove-api/internal/metrics"
	"github.com/redmonkez12/sstove-api/internal/profile"
	"github.com/redmonkez12/sstove-api/internal/stove"
)

// Handlers groups the feature handlers mounted by the router. A nil
// handler leaves its routes unmounted.
type Handlers struct {
	Auth     *auth.Handler
	Stoves   *stove.Handler
	Dishes   *dish.Handler
	Profiles *profile.Handler
	Health   *HealthHandler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, m *metrics.Metrics, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(SecurityHeaders(!cfg.Server.IsDevelopment()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	metricsEnabled := cfg.Metrics.Enabled && m != nil
	if metricsEnabled {
		r.Use(m.Middleware)
	}
	r.Use(middleware.Compress(5))

	if metricsEnabled {
		r.Handle("/metrics", m.Handler())
	}

	if h.Health != nil {
		r.Get("/health", h.Health.Live)
		r.Get("/health/ready", h.Health.Ready)
	}

	// Swagger UI is only served in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", swaggerPrefix+"*")
		r.Get(swaggerPrefix+"*", httpSwagger.WrapHandler)
	}

	if h.Auth != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/verify-email", h.Auth.VerifyEmail)
			r.Post("/forgot-password", h.Auth.ForgotPassword)
			r.Post("/reset-password", h.Auth.ResetPassword)
			r.Post("/resend-verification", h.Auth.ResendVerificationEmail)
			r.With(authMiddleware.RequireAuth).Get("/token-validation", h.Auth.TokenValidation)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		if h.Stoves != nil {
			r.Route("/stoves", h.Stoves.Routes)
		}
		if h.Dishes != nil {
			r.Route("/dishes", h.Dishes.Routes)
		}
		if h.Profiles != nil {
			r.Route("/users", h.Profiles.Routes)
		}
	})

	return r
}
