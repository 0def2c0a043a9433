package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	openai "github.com/sashabaranov/go-openai"

	appI18n "github.com/pavelanni/toetsgen/internal/i18n"
	"github.com/pavelanni/toetsgen/internal/llm"
)

const maxMessageLen = 300

// userMessage extracts a short, display-safe message from err. It tries the
// provider's error message, then the description in a raw error body, then
// the HTTP status, and finally the error text itself.
func userMessage(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return truncate(apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if msg := bodyMessage(reqErr.Body); msg != "" {
			return truncate(msg)
		}
		if reqErr.HTTPStatusCode != 0 {
			return http.StatusText(reqErr.HTTPStatusCode)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return appI18n.T(ctx, "ErrorTimeout")
	}

	msg := err.Error()
	msg = strings.TrimPrefix(msg, llm.ErrGenerationFailed.Error()+": ")
	if msg == "" {
		return appI18n.T(ctx, "ErrorUnknown")
	}
	return truncate(msg)
}

// bodyMessage reads the common shapes of provider error bodies.
func bodyMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Error json.RawMessage `json:"error"`
		// Some gateways put the text here.
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Error) > 0 {
		var s string
		if json.Unmarshal(payload.Error, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.ErrorDescription
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxMessageLen {
		return string(r[:maxMessageLen]) + "…"
	}
	return s
}

// firstInvalidField returns the struct field name of the first validation failure.
func firstInvalidField(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return ve[0].Field()
	}
	return ""
}
