package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/toetsgen/internal/handler/views"
	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/store"
)

func (h *Handler) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	h.renderAdmin(w, r, http.StatusOK, views.Message{})
}

func (h *Handler) renderAdmin(w http.ResponseWriter, r *http.Request, status int, msg views.Message) {
	ctx := r.Context()
	filter := model.RequestStatus(r.URL.Query().Get("status"))
	if filter != model.RequestPending && filter != model.RequestApproved {
		filter = ""
	}

	reqs, err := h.store.ListAccessRequests(ctx, filter)
	if err != nil {
		slog.Error("failed to list access requests", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	training, err := h.store.ListTrainingRequests(ctx)
	if err != nil {
		slog.Error("failed to list training requests", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	feedback, err := h.store.ListFeedback(ctx)
	if err != nil {
		slog.Error("failed to list feedback", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.renderPage(w, r, status, views.AdminPage(views.AdminData{
		Message:  msg,
		Requests: reqs,
		Training: training,
		Feedback: feedback,
		Filter:   filter,
	}))
}

func (h *Handler) handleAdminAction(w http.ResponseWriter, r *http.Request) {
	var status model.RequestStatus
	switch chi.URLParam(r, "action") {
	case "approve":
		status = model.RequestApproved
	case "revoke":
		status = model.RequestPending
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	err := h.store.SetAccessStatus(r.Context(), email, status)
	if errors.Is(err, store.ErrNotFound) {
		h.renderAdmin(w, r, http.StatusNotFound, views.Message{Error: appI18n.T(r.Context(), "RequestNotFound")})
		return
	}
	if err != nil {
		slog.Error("failed to change access status", "email", email, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("access request updated by admin", "email", email, "status", status,
		"admin", model.UserFromContext(r.Context()).Email)
	http.Redirect(w, r, h.path("/admin/requests"), http.StatusSeeOther)
}
