package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pavelanni/toetsgen/internal/handler/views"
	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/llm"
	"github.com/pavelanni/toetsgen/internal/model"
	"github.com/pavelanni/toetsgen/internal/testconfig"
)

// DefaultGenerationTimeout bounds one generation call when none is configured.
const DefaultGenerationTimeout = 3 * time.Minute

// loadDraft returns the user's saved draft or a fresh one.
func (h *Handler) loadDraft(ctx context.Context, userID int64) *testconfig.Draft {
	data, err := h.store.GetDraft(ctx, userID)
	if err != nil {
		slog.Error("failed to load draft", "user_id", userID, "error", err)
		return testconfig.New()
	}
	if data == nil {
		return testconfig.New()
	}
	d, err := testconfig.Decode(data)
	if err != nil {
		slog.Warn("discarding unreadable draft", "user_id", userID, "error", err)
		return testconfig.New()
	}
	return d
}

func (h *Handler) saveDraft(ctx context.Context, userID int64, d *testconfig.Draft) {
	data, err := testconfig.Encode(d)
	if err != nil {
		slog.Error("failed to encode draft", "user_id", userID, "error", err)
		return
	}
	if err := h.store.SaveDraft(ctx, userID, data); err != nil {
		slog.Error("failed to save draft", "user_id", userID, "error", err)
	}
}

func (h *Handler) handleConfigurePage(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	draft := h.loadDraft(r.Context(), user.ID)
	h.renderPage(w, r, http.StatusOK, views.ConfigurePage(views.ConfigureData{Draft: draft}))
}

func (h *Handler) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	user := model.UserFromContext(ctx)

	draft := testconfig.ParseForm(r.PostForm)
	action, target := testconfig.ParseAction(r.PostForm)
	draft.Apply(action, target, r.PostForm)

	data := views.ConfigureData{Draft: draft}
	status := http.StatusOK

	switch action {
	case testconfig.ActionSuggest:
		status = h.suggest(ctx, &data)
	case testconfig.ActionGenerate:
		cfg, err := draft.Assemble()
		if err != nil {
			var ve *testconfig.ValidationError
			if !errors.As(err, &ve) {
				slog.Error("assemble configuration", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			data.Problems = ve
			status = http.StatusUnprocessableEntity
			break
		}

		h.saveDraft(ctx, user.ID, draft)
		id, err := h.generate(ctx, user.ID, cfg)
		if err != nil {
			data.Error = generationErrorMessage(ctx, err)
			h.renderPage(w, r, http.StatusBadGateway, views.ConfigurePage(data))
			return
		}
		http.Redirect(w, r, h.path("/tests/"+id), http.StatusSeeOther)
		return
	case testconfig.ActionSave:
		data.Notice = appI18n.T(ctx, "DraftSaved")
	}

	h.saveDraft(ctx, user.ID, draft)
	h.renderPage(w, r, status, views.ConfigurePage(data))
}

// suggest fills data with a topic suggestion. Topics are only filled in when
// the field is empty and the research succeeded.
func (h *Handler) suggest(ctx context.Context, data *views.ConfigureData) int {
	draft := data.Draft
	if strings.TrimSpace(draft.Subject) == "" {
		data.Error = appI18n.T(ctx, "SuggestNeedsSubject")
		return http.StatusUnprocessableEntity
	}

	s, err := h.gen.Suggest(ctx, draft.Subject, draft.Level)
	if err != nil {
		slog.Error("topic suggestion failed", "error", err)
		data.Error = generationErrorMessage(ctx, err)
		return http.StatusBadGateway
	}
	data.Suggestion = &s
	if !s.Failed && strings.TrimSpace(draft.Topics) == "" {
		draft.Topics = s.Topics
	}
	return http.StatusOK
}

// generate calls the generator and stores the result. The call is not
// cancelled when the client goes away; only the generation timeout bounds it.
func (h *Handler) generate(ctx context.Context, userID int64, cfg model.TestConfiguration) (string, error) {
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.GenerationTimeout)
	defer cancel()

	start := time.Now()
	test, err := h.gen.Generate(genCtx, cfg)
	if err != nil {
		slog.Error("test generation failed", "user_id", userID, "taxonomy", cfg.Taxonomy, "error", err)
		return "", err
	}
	slog.Info("test generated", "user_id", userID, "taxonomy", cfg.Taxonomy,
		"questions", len(test.Questions), "duration", time.Since(start))

	id, err := h.store.SaveTest(genCtx, userID, cfg, test)
	if err != nil {
		slog.Error("failed to store generated test", "user_id", userID, "error", err)
		return "", err
	}
	return id, nil
}

// generationErrorMessage is the localized message for a failed provider call.
func generationErrorMessage(ctx context.Context, err error) string {
	if errors.Is(err, llm.ErrMissingCredential) {
		return appI18n.T(ctx, "ErrorMissingCredential")
	}
	return appI18n.Td(ctx, "ErrorGeneration", map[string]any{"Detail": userMessage(ctx, err)})
}
