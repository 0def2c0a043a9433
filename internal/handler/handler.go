package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/toetsgen/internal/access"
	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/store"
)

// Generator produces tests and topic suggestions.
type Generator interface {
	Generate(ctx context.Context, cfg model.TestConfiguration) (*model.GeneratedTest, error)
	Suggest(ctx context.Context, subject, level string) (model.Suggestion, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	gen      Generator
	gates    *access.Registry
	config   model.ServerConfig
	validate *validator.Validate
}

// New creates a new Handler.
func New(s *store.Store, gen Generator, gates *access.Registry, cfg model.ServerConfig) (*Handler, error) {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = DefaultGenerationTimeout
	}
	return &Handler{
		store:    s,
		gen:      gen,
		gates:    gates,
		config:   cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.csrfMiddleware)

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
	r.Get("/training", h.handleTrainingPage)
	r.Post("/training", h.handleTraining)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/access", h.handleAccessPage)
		r.Post("/access/retry", h.handleAccessRetry)
		r.Get("/feedback", h.handleFeedbackPage)
		r.Post("/feedback", h.handleFeedback)

		r.Group(func(r chi.Router) {
			r.Use(h.requireApproval)

			r.Get("/", h.handleConfigurePage)
			r.Post("/configure", h.handleConfigure)
			r.Get("/tests", h.handleHistory)
			r.Get("/tests/{testID}", h.handleResult)
			r.Get("/tests/{testID}/export.txt", h.handleExportText)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin))
				r.Get("/admin/requests", h.handleAdminPage)
				r.Post("/admin/requests/{action}", h.handleAdminAction)
			})
		})
	})
}

// BasePathMiddleware makes the deployment prefix available to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "path", r.URL.Path, "error", err)
	}
}
