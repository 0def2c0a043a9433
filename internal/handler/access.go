package handler

import (
	"net/http"

	"github.com/pavelanni/toetsgen/internal/access"
	"github.com/pavelanni/toetsgen/internal/handler/views"
)

func (h *Handler) handleAccessPage(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromContext(r.Context())
	st := h.gates.Gate(token, h.signOutFunc(token)).State()
	if st.Status != access.StatusApprovalError {
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	}
	h.renderPage(w, r, http.StatusServiceUnavailable, views.ApprovalPage(st))
}

func (h *Handler) handleAccessRetry(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromContext(r.Context())
	st := h.gates.Gate(token, h.signOutFunc(token)).Retry(r.Context())

	switch st.Status {
	case access.StatusApprovalError:
		h.renderPage(w, r, http.StatusServiceUnavailable, views.ApprovalPage(st))
	case access.StatusUnauthenticated:
		h.gates.Drop(token)
		h.clearSessionCookie(w)
		h.redirectToLogin(w, r, st.Reason)
	default:
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
	}
}
