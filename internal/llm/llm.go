package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/toetsgen/internal/llm/prompts"
	"github.com/pavelanni/toetsgen/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrMissingCredential is returned before any request when no API key is configured.
	ErrMissingCredential = errors.New("llm: API key is not configured")
	// ErrGenerationFailed wraps every provider or parse failure of Generate.
	ErrGenerationFailed = errors.New("llm: test generation failed")
)

const (
	// SuggestionPlaceholder replaces the topics text when research fails.
	SuggestionPlaceholder = "Kon geen onderwerpen ophalen. Probeer het opnieuw."

	defaultSourceTitle = "Bron"
	defaultSourceURI   = "#"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api    *openai.Client
	model  string
	apiKey string
}

// New creates a new LLM client. An empty apiKey is accepted so the server can
// start; every call then fails with ErrMissingCredential.
func New(baseURL, apiKey, modelName string) (*Client, error) {
	if modelName == "" {
		return nil, errors.New("llm: model name is required")
	}
	if err := prompts.Load(prompts.Templates); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		api:    openai.NewClientWithConfig(config),
		model:  modelName,
		apiKey: apiKey,
	}, nil
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// Ping checks that the endpoint answers with the configured credential.
func (c *Client) Ping(ctx context.Context) error {
	if !c.HasCredential() {
		return ErrMissingCredential
	}
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// Generate asks the model for a complete exam matching cfg. It makes a single
// attempt; the response must parse as the exam schema of cfg's taxonomy.
func (c *Client) Generate(ctx context.Context, cfg model.TestConfiguration) (*model.GeneratedTest, error) {
	if !c.HasCredential() {
		return nil, ErrMissingCredential
	}

	prompt, err := prompts.BuildGeneratePrompt(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: build prompt: %w", ErrGenerationFailed, err)
	}
	schema := ExamSchema(cfg.Taxonomy)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "generated_test",
				Schema: &schema,
			},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: LLM API call: %w", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: LLM returned no choices", ErrGenerationFailed)
	}

	raw := cleanJSON(resp.Choices[0].Message.Content)
	slog.Debug("LLM generation response", "bytes", len(raw))

	test, err := parseGeneratedTest(raw, cfg.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return test, nil
}

// Suggest researches topics for subject and level. It never fails on
// provider errors: those resolve to a placeholder with no sources.
func (c *Client) Suggest(ctx context.Context, subject, level string) (model.Suggestion, error) {
	if !c.HasCredential() {
		return model.Suggestion{}, ErrMissingCredential
	}

	s, err := c.suggest(ctx, subject, level)
	if err != nil {
		slog.Warn("topic suggestion failed", "subject", subject, "level", level, "error", err)
		return model.Suggestion{Topics: SuggestionPlaceholder, Sources: []model.Source{}, Failed: true}, nil
	}
	return s, nil
}

func (c *Client) suggest(ctx context.Context, subject, level string) (model.Suggestion, error) {
	prompt, err := prompts.BuildSuggestPrompt(subject, level)
	if err != nil {
		return model.Suggestion{}, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return model.Suggestion{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Suggestion{}, errors.New("LLM returned no choices")
	}

	var s model.Suggestion
	if err := json.Unmarshal([]byte(cleanJSON(resp.Choices[0].Message.Content)), &s); err != nil {
		return model.Suggestion{}, fmt.Errorf("parse suggestion: %w", err)
	}
	sources := make([]model.Source, 0, len(s.Sources))
	for _, src := range s.Sources {
		if src.Title == "" {
			src.Title = defaultSourceTitle
		}
		if src.URI == "" {
			src.URI = defaultSourceURI
		}
		sources = append(sources, src)
	}
	s.Sources = sources
	return s, nil
}

// parseGeneratedTest decodes a response and checks the fields every view relies on.
func parseGeneratedTest(raw string, taxonomy model.TaxonomyID) (*model.GeneratedTest, error) {
	var test model.GeneratedTest
	if err := json.Unmarshal([]byte(raw), &test); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w", err)
	}
	if test.Title == "" {
		return nil, errors.New("response has no title")
	}
	if test.Questions == nil {
		return nil, errors.New("response has no questions")
	}
	switch test.Taxonomy {
	case "":
		test.Taxonomy = taxonomy
	case taxonomy:
	default:
		return nil, fmt.Errorf("response taxonomy %q does not match %q", test.Taxonomy, taxonomy)
	}
	return &test, nil
}

// cleanJSON strips Markdown code fences some models wrap around JSON.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
