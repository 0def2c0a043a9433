package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/pavelanni/toetsgen/internal/handler/views"
	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/model"
)

type feedbackForm struct {
	Name    string `validate:"max=200"`
	Message string `validate:"required,max=5000"`
}

func (h *Handler) handleFeedbackPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, views.FeedbackPage(views.Message{}))
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	f := feedbackForm{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}
	if err := h.validate.Struct(f); err != nil {
		h.renderPage(w, r, http.StatusUnprocessableEntity,
			views.FeedbackPage(views.Message{Error: appI18n.T(r.Context(), "FeedbackInvalid")}))
		return
	}

	user := model.UserFromContext(r.Context())
	fb := model.Feedback{Name: f.Name, Message: f.Message}
	if user != nil {
		fb.UserID = &user.ID
		if fb.Name == "" {
			fb.Name = user.Email
		}
	}
	id, err := h.store.AddFeedback(r.Context(), fb)
	if err != nil {
		slog.Error("failed to store feedback", "error", err)
		h.renderPage(w, r, http.StatusInternalServerError,
			views.FeedbackPage(views.Message{Error: userMessage(r.Context(), err)}))
		return
	}
	slog.Info("feedback received", "id", id, "name", fb.Name)

	h.renderPage(w, r, http.StatusOK,
		views.FeedbackPage(views.Message{Notice: appI18n.T(r.Context(), "FeedbackThanks")}))
}
