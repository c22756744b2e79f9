package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
)

func TestNew_missingKey(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "gemini"} {
		t.Run(provider, func(t *testing.T) {
			t.Setenv(envKeys[provider], "")
			_, err := New(context.Background(), config.LLMConfig{Provider: provider})
			if !models.IsUnavailable(err) {
				t.Fatalf("New() = %v, want unavailable", err)
			}
		})
	}
}

func TestNew_unknownProvider(t *testing.T) {
	if _, err := New(context.Background(), config.LLMConfig{Provider: "mystery", APIKey: "k"}); !models.IsUnavailable(err) {
		t.Fatalf("New() = %v, want unavailable", err)
	}
}

func TestNew_envKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	p, err := New(context.Background(), config.LLMConfig{Provider: "Anthropic", Model: "claude"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("name = %q", p.Name())
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`{"a":1}`, `{"a":1}`, false},
		{"```json\n{\"a\": {\"b\": 2}}\n```", `{"a": {"b": 2}}`, false},
		{"Sure! {\"x\":[1]} hope that helps", `{"x":[1]}`, false},
		{"no json here", "", true},
	}
	for _, tt := range tests {
		got, err := ExtractJSON(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExtractJSON(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenAI_Complete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"a short summary"}}]}`)
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", config.LLMConfig{Model: "gpt-4o-mini", BaseURL: srv.URL + "/v1/", MaxTokens: 64})
	got, err := p.Complete(context.Background(), Request{System: "be brief", Prompt: "summarize", JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "a short summary" {
		t.Errorf("got %q", got)
	}
	if body["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", body["model"])
	}
	if msgs, _ := body["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v", body["messages"])
	}
	if rf, _ := body["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("response_format = %v", body["response_format"])
	}
}

func TestAnthropic_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"m1","type":"message","role":"assistant","model":"claude",`+
			`"content":[{"type":"text","text":"part one, "},{"type":"text","text":"part two"}],`+
			`"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}}`)
	}))
	defer srv.Close()

	p := NewAnthropic("test-key", config.LLMConfig{Model: "claude", BaseURL: srv.URL})
	got, err := p.Complete(context.Background(), Request{Prompt: "summarize"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "part one, part two" {
		t.Errorf("got %q", got)
	}
}

func TestOpenAI_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	p := NewOpenAI("test-key", config.LLMConfig{Model: "nope", BaseURL: srv.URL + "/v1/"})
	if _, err := p.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error")
	}
}
