package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/toetsgen/internal/handler/views"
	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/present"
	"github.com/pavelanni/toetsgen/internal/store"
)

// loadOwnTest returns the test in the URL if the user may see it. It writes
// the error response itself and returns nil when not.
func (h *Handler) loadOwnTest(w http.ResponseWriter, r *http.Request) *model.TestRecord {
	user := model.UserFromContext(r.Context())
	rec, err := h.store.GetTest(r.Context(), chi.URLParam(r, "testID"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && rec.UserID != user.ID && user.Role != model.UserRoleAdmin) {
		h.renderPage(w, r, http.StatusNotFound, views.ErrorPage(appI18n.T(r.Context(), "TestNotFound")))
		return nil
	}
	if err != nil {
		slog.Error("failed to load test", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	return rec
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	rec := h.loadOwnTest(w, r)
	if rec == nil {
		return
	}
	doc := present.NewDocument(&rec.Test)
	state := present.ParseState(r.URL.Query())

	h.renderPage(w, r, http.StatusOK, views.ResultPage(views.ResultData{
		ID:     rec.ID,
		Doc:    doc,
		State:  state,
		Config: rec.Config,
		Text:   present.ExportText(doc, state),
	}))
}

func (h *Handler) handleExportText(w http.ResponseWriter, r *http.Request) {
	rec := h.loadOwnTest(w, r)
	if rec == nil {
		return
	}
	doc := present.NewDocument(&rec.Test)
	text := present.ExportText(doc, present.ParseState(r.URL.Query()))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="toets-`+rec.ID+`.txt"`)
	_, _ = w.Write([]byte(text))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	tests, err := h.store.ListTests(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to list tests", "user_id", user.ID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, http.StatusOK, views.HistoryPage(tests))
}
