package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pavelanni/toetsgen/internal/model"
)

// fakeProvider serves /chat/completions with a fixed assistant message or status.
type fakeProvider struct {
	status  int
	content string
	calls   atomic.Int32
	lastReq map[string]any
}

func (f *fakeProvider) start(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.lastReq)
		w.Header().Set("Content-Type", "application/json")
		if f.status != 0 && f.status != http.StatusOK {
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`))
			return
		}
		resp := map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": f.content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/v1", "test-key", "test-model")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func testConfig() model.TestConfiguration {
	return model.TestConfiguration{
		Taxonomy:      model.TaxonomyRTTI,
		Subject:       "Biologie",
		Level:         "VMBO 3 KB",
		Topics:        "Celdeling",
		Distribution:  []model.Weight{{Label: "R", Percent: 25}, {Label: "T1", Percent: 40}, {Label: "T2", Percent: 25}, {Label: "I", Percent: 10}},
		Duration:      60,
		QuestionCount: 2,
		QuestionTypes: "50% Meerkeuze, 50% Open vraag / korte antwoord",
		LanguageLevel: "Normaal",
	}
}

const validTest = `{
  "title": "Toets Celdeling",
  "taxonomy": "RTTI",
  "introduction": "Lees elke vraag goed.",
  "questions": [
    {"id": 1, "text": "Wat is mitose?", "taxonomyLabel": "R", "type": "Multiple Choice", "options": ["Celdeling", "Fotosynthese"], "points": 1},
    {"id": 2, "text": "Leg uit waarom cellen delen.", "taxonomyLabel": "I", "type": "Open", "points": 3}
  ],
  "matrix": [{"topic": "Celdeling", "counts": {"R": 1, "T1": 0, "T2": 0, "I": 1}}],
  "answers": [{"questionId": 1, "answer": "Celdeling", "explanation": "Feitenkennis"}],
  "goalMapping": [{"goal": "Mitose uitleggen", "questionIds": [1, 2]}],
  "analysisInstructions": "Tel de scores per niveau."
}`

func TestGenerate(t *testing.T) {
	fp := &fakeProvider{content: "```json\n" + validTest + "\n```"}
	c := fp.start(t)

	test, err := c.Generate(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if test.Title != "Toets Celdeling" {
		t.Errorf("Title = %q", test.Title)
	}
	if len(test.Questions) != 2 || test.Questions[0].Options[1] != "Fotosynthese" {
		t.Errorf("Questions = %+v", test.Questions)
	}
	if test.Matrix[0].Counts["I"] != 1 {
		t.Errorf("Matrix = %+v", test.Matrix)
	}

	rf, _ := fp.lastReq["response_format"].(map[string]any)
	if rf["type"] != "json_schema" {
		t.Errorf("response_format = %v, want json_schema", rf)
	}
	if fp.calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d calls", fp.calls.Load())
	}
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"provider rejects", http.StatusTooManyRequests, ""},
		{"not json", http.StatusOK, "Sorry, ik kan dat niet."},
		{"missing title", http.StatusOK, `{"questions": []}`},
		{"wrong taxonomy", http.StatusOK, strings.Replace(validTest, `"taxonomy": "RTTI"`, `"taxonomy": "KTI"`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProvider{status: tt.status, content: tt.content}
			c := fp.start(t)

			_, err := c.Generate(context.Background(), testConfig())
			if !errors.Is(err, ErrGenerationFailed) {
				t.Fatalf("expected ErrGenerationFailed, got %v", err)
			}
			if fp.calls.Load() != 1 {
				t.Errorf("expected no retry, got %d calls", fp.calls.Load())
			}
		})
	}
}

func TestMissingCredential(t *testing.T) {
	fp := &fakeProvider{content: validTest}
	srvClient := fp.start(t)

	c, err := New("http://127.0.0.1:1/v1", "", "test-model")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.api = srvClient.api

	if _, err := c.Generate(context.Background(), testConfig()); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Generate error = %v, want ErrMissingCredential", err)
	}
	if _, err := c.Suggest(context.Background(), "Biologie", "VMBO"); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Suggest error = %v, want ErrMissingCredential", err)
	}
	if err := c.Ping(context.Background()); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Ping error = %v, want ErrMissingCredential", err)
	}
	if fp.calls.Load() != 0 {
		t.Errorf("no request should be sent without a key, got %d", fp.calls.Load())
	}
}

func TestSuggest(t *testing.T) {
	fp := &fakeProvider{content: `{"topics": "1. Celdeling\n2. DNA", "sources": [{"title": "SLO", "uri": "https://slo.nl"}, {"title": "", "uri": ""}]}`}
	c := fp.start(t)

	s, err := c.Suggest(context.Background(), "Biologie", "VMBO 3 KB")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if s.Failed {
		t.Fatal("suggestion should not be marked failed")
	}
	if !strings.Contains(s.Topics, "DNA") {
		t.Errorf("Topics = %q", s.Topics)
	}
	if len(s.Sources) != 2 {
		t.Fatalf("Sources = %v", s.Sources)
	}
	if s.Sources[1] != (model.Source{Title: "Bron", URI: "#"}) {
		t.Errorf("empty source not defaulted: %+v", s.Sources[1])
	}
}

func TestSuggestDegradesOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"network error", http.StatusInternalServerError, ""},
		{"garbage", http.StatusOK, "geen json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := &fakeProvider{status: tt.status, content: tt.content}
			c := fp.start(t)

			s, err := c.Suggest(context.Background(), "Biologie", "VMBO")
			if err != nil {
				t.Fatalf("Suggest should not fail, got %v", err)
			}
			if !s.Failed || s.Topics != SuggestionPlaceholder {
				t.Errorf("Suggest = %+v, want placeholder", s)
			}
			if s.Sources == nil || len(s.Sources) != 0 {
				t.Errorf("Sources = %#v, want empty slice", s.Sources)
			}
		})
	}
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  \n", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := cleanJSON(tt.in); got != tt.want {
			t.Errorf("cleanJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExamSchema(t *testing.T) {
	schema := ExamSchema(model.TaxonomyKTI)
	data, err := json.Marshal(&schema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"enum":["KTI"]`, `"enum":["K","T","I"]`, `"analysisInstructions"`} {
		if !strings.Contains(s, want) {
			t.Errorf("schema missing %s", want)
		}
	}
	if strings.Contains(s, `"T1"`) {
		t.Error("KTI schema should not contain RTTI labels")
	}
}
