package perplexity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-search/config"
	"voice-search/internal/domain"
	"voice-search/internal/infra/perplexity"
	"voice-search/internal/telemetry"
)

func testConfig(baseURL string) config.PerplexityConfig {
	return config.PerplexityConfig{
		APIKey:      "test-key",
		Model:       "sonar-pro",
		BaseURL:     baseURL,
		Timeout:     "2s",
		MaxTokens:   512,
		Temperature: 0.2,
	}
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestAsk_Success(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completionBody("the answer"))
	}))
	defer server.Close()

	client := perplexity.NewClient(testConfig(server.URL), telemetry.New())

	answer, err := client.Ask(context.Background(), "what is go")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}

	if answer != "the answer" {
		t.Errorf("answer: got %q, want %q", answer, "the answer")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("authorization header: got %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotReq["model"] != "sonar-pro" {
		t.Errorf("model: got %v", gotReq["model"])
	}
	messages, ok := gotReq["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("messages: got %v, want exactly one", gotReq["messages"])
	}
	msg := messages[0].(map[string]any)
	if msg["role"] != "user" || msg["content"] != "what is go" {
		t.Errorf("user message: got %v", msg)
	}
}

func TestAsk_StatusClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind domain.FailureKind
	}{
		{"unauthorized", http.StatusUnauthorized, domain.FailureAuth},
		{"forbidden", http.StatusForbidden, domain.FailureAuth},
		{"rate limited", http.StatusTooManyRequests, domain.FailureTransient},
		{"server error", http.StatusInternalServerError, domain.FailureTransient},
		{"bad gateway", http.StatusBadGateway, domain.FailureTransient},
		{"unexpected client error", http.StatusTeapot, domain.FailureUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			client := perplexity.NewClient(testConfig(server.URL), telemetry.New())

			_, err := client.Ask(context.Background(), "q")
			if err == nil {
				t.Fatal("expected an error")
			}
			if kind := domain.KindOf(err); kind != tt.wantKind {
				t.Errorf("kind: got %s, want %s", kind, tt.wantKind)
			}
		})
	}
}

func TestAsk_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message"`)) // truncated JSON
	}))
	defer server.Close()

	client := perplexity.NewClient(testConfig(server.URL), telemetry.New())

	_, err := client.Ask(context.Background(), "q")
	if kind := domain.KindOf(err); kind != domain.FailureMalformed {
		t.Errorf("kind: got %s, want %s", kind, domain.FailureMalformed)
	}
}

func TestAsk_MissingAnswerField(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices": []}`},
		{"empty content", `{"choices": [{"message": {"content": ""}}]}`},
		{"unrelated shape", `{"ok": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := perplexity.NewClient(testConfig(server.URL), telemetry.New())

			_, err := client.Ask(context.Background(), "q")
			if kind := domain.KindOf(err); kind != domain.FailureMalformed {
				t.Errorf("kind: got %s, want %s", kind, domain.FailureMalformed)
			}
		})
	}
}

func TestAsk_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // nothing listens here anymore

	client := perplexity.NewClient(testConfig(server.URL), telemetry.New())

	_, err := client.Ask(context.Background(), "q")
	if kind := domain.KindOf(err); kind != domain.FailureNetwork {
		t.Errorf("kind: got %s, want %s", kind, domain.FailureNetwork)
	}
}

func TestAsk_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(completionBody("too late"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = "50ms"
	client := perplexity.NewClient(cfg, telemetry.New())

	_, err := client.Ask(context.Background(), "q")
	if kind := domain.KindOf(err); kind != domain.FailureNetwork {
		t.Errorf("kind: got %s, want %s", kind, domain.FailureNetwork)
	}
}

func TestAsk_NeverReturnsUnclassifiedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := perplexity.NewClient(testConfig(server.URL), telemetry.New())

	_, err := client.Ask(context.Background(), "q")
	if err == nil {
		t.Fatal("expected an error")
	}

	var f *domain.Failure
	if !errors.As(err, &f) {
		t.Errorf("error is not a classified failure: %T %v", err, err)
	}
}
