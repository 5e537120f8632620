package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/config"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/handlers"
)

// formBodyLimit caps bodies of ordinary form posts.
const formBodyLimit = 1 << 20

// NewRouter creates and configures the HTTP router. limiter may be nil,
// in which case requests are not rate limited.
func NewRouter(logger zerolog.Logger, cfg *config.Config, h *handlers.Handler, auth *middleware.AuthMiddleware, limiter *middleware.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	// Uploads up to twice the file limit reach the handler, which answers
	// oversized files with the form and a notice.
	r.Use(middleware.MaxBodySize(formBodyLimit, map[string]int64{
		"/create-agent": 2*cfg.MaxUploadBytes + formBodyLimit,
	}))
	r.Use(middleware.ValidateRequest)
	r.Use(middleware.SameOriginPosts)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	// Operational endpoints are readable by monitoring dashboards on other origins.
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		r.Get("/health", h.Health)
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir()))))

	// Public routes
	r.Get("/sign-in", h.SignInPage)
	r.Post("/sign-in", h.SignIn)
	r.Get("/sign-up", h.SignUpPage)
	r.Post("/sign-up", h.SignUp)

	// Pages behind a signed-in session
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)

		r.Post("/sign-out", h.SignOut)

		r.Get("/", h.Dashboard)
		r.Get("/dashboard", h.Dashboard)

		r.Get("/create-agent", h.CreateAgentPage)
		r.Post("/create-agent", h.CreateAgent)

		r.Get("/agent/{agentID}", h.Agent)
		r.Post("/agent/{agentID}/prompt", h.UpdatePrompt)
		r.Post("/agent/{agentID}/suggestions", h.Suggestions)

		r.Get("/ticket/{ticketID}", h.Ticket)
	})

	r.NotFound(h.NotFound)

	return r
}

// staticDir returns the path to static files directory.
func staticDir() string {
	// Check if running from app directory (production container)
	if _, err := os.Stat("/app/web/static"); err == nil {
		return "/app/web/static"
	}
	return "web/static"
}
