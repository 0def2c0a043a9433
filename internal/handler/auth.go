package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/toetsgen/internal/access"
	"github.com/pavelanni/toetsgen/internal/handler/views"
	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/store"
)

const (
	sessionCookieName = "session"
	csrfCookieName    = "csrf_token"
	reasonParam       = "reason"
)

type tokenCtxKey struct{}

func sessionTokenFromContext(ctx context.Context) string {
	s, _ := ctx.Value(tokenCtxKey{}).(string)
	return s
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// issueCSRFToken sets a fresh token cookie and stores the token in the context.
func (h *Handler) issueCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	token, err := generateCSRFToken()
	if err != nil {
		slog.Error("failed to generate CSRF token", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return r, false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: false,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return r.WithContext(model.ContextWithCSRFToken(r.Context(), token)), true
}

func (h *Handler) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			cookie, err := r.Cookie(csrfCookieName)
			if err != nil || cookie.Value == "" {
				slog.Warn("CSRF cookie missing", "path", r.URL.Path)
				http.Error(w, "csrf token missing", http.StatusForbidden)
				return
			}
			formToken := r.FormValue("csrf_token")
			if formToken == "" {
				slog.Warn("CSRF form token missing", "path", r.URL.Path)
				http.Error(w, "csrf token missing", http.StatusForbidden)
				return
			}
			if len(formToken) != len(cookie.Value) || subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) != 1 {
				slog.Warn("CSRF token mismatch", "path", r.URL.Path)
				http.Error(w, "invalid csrf token", http.StatusForbidden)
				return
			}
		}

		r, ok := h.issueCSRFToken(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth is middleware that checks for a valid session cookie.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.redirectToLogin(w, r, "")
			return
		}

		authSess, err := h.store.GetAuthSession(r.Context(), cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			h.redirectToLogin(w, r, "")
			return
		}
		if authSess == nil {
			h.gates.Drop(cookie.Value)
			h.redirectToLogin(w, r, "")
			return
		}

		user, err := h.store.GetUserByID(r.Context(), authSess.UserID)
		if err != nil || user == nil {
			h.redirectToLogin(w, r, "")
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		ctx = context.WithValue(ctx, tokenCtxKey{}, cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireApproval admits only sessions whose access request is approved.
// Must run after requireAuth.
func (h *Handler) requireApproval(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionTokenFromContext(r.Context())
		user := model.UserFromContext(r.Context())
		gate := h.gates.Gate(token, h.signOutFunc(token))

		st := gate.State()
		switch st.Status {
		case access.StatusApprovalError:
			// Only an explicit retry repeats the lookup.
			http.Redirect(w, r, h.path("/access"), http.StatusSeeOther)
			return
		case access.StatusChecking:
			st = gate.Handle(r.Context(), access.Event{Kind: access.EventInitialSession, Email: user.Email})
		default:
			st = gate.Handle(r.Context(), access.Event{Kind: access.EventTokenRefreshed, Email: user.Email})
		}

		switch st.Status {
		case access.StatusApproved:
			next.ServeHTTP(w, r)
		case access.StatusApprovalError:
			http.Redirect(w, r, h.path("/access"), http.StatusSeeOther)
		default:
			h.gates.Drop(token)
			h.clearSessionCookie(w)
			h.redirectToLogin(w, r, st.Reason)
		}
	})
}

// signOutFunc ends the session behind token when access is definitively denied.
func (h *Handler) signOutFunc(token string) access.SignOutFunc {
	return func(ctx context.Context) error {
		return h.store.DeleteAuthSession(context.WithoutCancel(ctx), token)
	}
}

// SweepSessions deletes expired sessions and forgets the approval gates of
// sessions that no longer exist. It returns the number of gates dropped.
func (h *Handler) SweepSessions(ctx context.Context) (int, error) {
	if err := h.store.CleanupExpiredSessions(ctx); err != nil {
		return 0, err
	}
	dropped := h.gates.Prune(func(token string) bool {
		sess, err := h.store.GetAuthSession(ctx, token)
		if err != nil {
			slog.Warn("session lookup during sweep", "error", err)
			return true
		}
		return sess != nil
	})
	if dropped > 0 {
		slog.Debug("dropped approval gates of ended sessions", "count", dropped)
	}
	return dropped, nil
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request, reason access.Reason) {
	loginPath := h.path("/login")
	if reason != access.ReasonNone {
		loginPath += "?" + url.Values{reasonParam: {string(reason)}}.Encode()
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", loginPath)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     h.cookiePath(),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
}

// deniedMessage is the login-page text for a definitive denial.
func deniedMessage(ctx context.Context, reason access.Reason) string {
	switch reason {
	case access.ReasonPending:
		return appI18n.T(ctx, "AccessPending")
	case access.ReasonNoAccess:
		return appI18n.T(ctx, "AccessNoRequest")
	}
	return ""
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	msg := views.Message{Error: deniedMessage(r.Context(), access.Reason(r.URL.Query().Get(reasonParam)))}
	h.renderPage(w, r, http.StatusOK, views.LoginPage(msg, ""))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		h.renderLoginError(w, r, email, appI18n.T(r.Context(), "LoginError"))
		return
	}
	if user == nil {
		h.renderLoginError(w, r, email, appI18n.T(r.Context(), "LoginError"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		h.renderLoginError(w, r, email, appI18n.T(r.Context(), "LoginError"))
		return
	}

	token, err := h.store.CreateAuthSession(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	gate := h.gates.Gate(token, h.signOutFunc(token))
	st := gate.Handle(r.Context(), access.Event{Kind: access.EventSignedIn, Email: user.Email})
	switch st.Status {
	case access.StatusApproved:
		h.setSessionCookie(w, token)
		slog.Info("user signed in", "email", user.Email)
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
	case access.StatusApprovalError:
		// The session is kept so the user can retry the check.
		h.setSessionCookie(w, token)
		http.Redirect(w, r, h.path("/access"), http.StatusSeeOther)
	default:
		h.gates.Drop(token)
		h.renderLoginError(w, r, email, deniedMessage(r.Context(), st.Reason))
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		h.gates.Gate(cookie.Value, nil).Handle(r.Context(), access.Event{Kind: access.EventSignedOut})
		h.gates.Drop(cookie.Value)
		_ = h.store.DeleteAuthSession(r.Context(), cookie.Value)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, email, msg string) {
	h.renderPage(w, r, http.StatusUnauthorized, views.LoginPage(views.Message{Error: msg}, email))
}

// registerForm is the sign-up form.
type registerForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	School   string `validate:"required"`
}

func (h *Handler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, views.RegisterPage(views.Message{}, views.RegisterForm{}))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	f := registerForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		School:   strings.TrimSpace(r.FormValue("school")),
	}
	back := views.RegisterForm{Email: f.Email, School: f.School}

	if err := h.validate.Struct(f); err != nil {
		msg := appI18n.T(r.Context(), "RegisterInvalid")
		if field := firstInvalidField(err); field != "" {
			msg = appI18n.T(r.Context(), "RegisterInvalid"+field)
		}
		h.renderPage(w, r, http.StatusUnprocessableEntity, views.RegisterPage(views.Message{Error: msg}, back))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(f.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	_, err = h.store.Register(r.Context(), model.User{
		Email:        f.Email,
		SchoolName:   f.School,
		PasswordHash: string(hash),
	})
	if errors.Is(err, store.ErrDuplicateEmail) {
		h.renderPage(w, r, http.StatusConflict, views.RegisterPage(views.Message{Error: appI18n.T(r.Context(), "RegisterDuplicate")}, back))
		return
	}
	if err != nil {
		slog.Error("registration failed", "email", f.Email, "error", err)
		h.renderPage(w, r, http.StatusInternalServerError, views.RegisterPage(views.Message{Error: userMessage(r.Context(), err)}, back))
		return
	}

	h.renderPage(w, r, http.StatusOK, views.RegisterDonePage(f.Email))
}

// trainingForm is the training request form.
type trainingForm struct {
	Email   string `validate:"required,email"`
	School  string `validate:"required"`
	Contact string `validate:"required"`
	Phone   string
}

func (h *Handler) handleTrainingPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, views.TrainingPage(views.Message{}, views.TrainingForm{}))
}

func (h *Handler) handleTraining(w http.ResponseWriter, r *http.Request) {
	f := trainingForm{
		Email:   strings.TrimSpace(r.FormValue("email")),
		School:  strings.TrimSpace(r.FormValue("school")),
		Contact: strings.TrimSpace(r.FormValue("contact")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
	}
	back := views.TrainingForm(f)

	if err := h.validate.Struct(f); err != nil {
		h.renderPage(w, r, http.StatusUnprocessableEntity,
			views.TrainingPage(views.Message{Error: appI18n.T(r.Context(), "TrainingInvalid")}, back))
		return
	}

	desc := "TRAINING AANVRAAG | School: " + f.School + " | Contact: " + f.Contact + " | Tel: " + f.Phone
	if _, err := h.store.CreateTrainingRequest(r.Context(), f.Email, desc); err != nil {
		slog.Error("failed to store training request", "email", f.Email, "error", err)
		h.renderPage(w, r, http.StatusInternalServerError,
			views.TrainingPage(views.Message{Error: userMessage(r.Context(), err)}, back))
		return
	}

	h.renderPage(w, r, http.StatusOK,
		views.TrainingPage(views.Message{Notice: appI18n.T(r.Context(), "TrainingSent")}, views.TrainingForm{}))
}
