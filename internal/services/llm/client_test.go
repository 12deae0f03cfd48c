package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func completionHandler(t *testing.T, content string, usage map[string]int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"model": "gpt-3.5-turbo-0125",
			"choices": []any{
				map[string]any{
					"message":       map[string]any{"content": content},
					"finish_reason": "stop",
				},
			},
			"usage": usage,
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func TestCompleteReturnsTextAndUsage(t *testing.T) {
	var captured chatCompletionRequest
	var auth, title string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		title = r.Header.Get("X-Title")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		completionHandler(t, "  You scrolled 2h. Unlocked: regret.  ", map[string]int{
			"prompt_tokens": 120, "completion_tokens": 18, "total_tokens": 138,
		})(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Model: "gpt-3.5-turbo", Title: "breathein"})
	got, err := client.Complete(context.Background(), Request{Prompt: "write", MaxTokens: 100, Temperature: 0.7})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got.Text != "You scrolled 2h. Unlocked: regret." {
		t.Fatalf("unexpected text %q", got.Text)
	}
	if got.Usage.PromptTokens != 120 || got.Usage.CompletionTokens != 18 || got.Usage.TotalTokens != 138 {
		t.Fatalf("unexpected usage %+v", got.Usage)
	}
	if got.Model != "gpt-3.5-turbo-0125" {
		t.Fatalf("expected model from response, got %q", got.Model)
	}
	if auth != "Bearer secret" || title != "breathein" {
		t.Fatalf("unexpected headers auth=%q title=%q", auth, title)
	}
	if captured.MaxTokens != 100 || captured.Temperature != 0.7 || captured.Model != "gpt-3.5-turbo" {
		t.Fatalf("unexpected request payload %+v", captured)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("expected a single user message, got %+v", captured.Messages)
	}
}

func TestCompleteFillsMissingTotal(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "ok", map[string]int{"prompt_tokens": 3, "completion_tokens": 2}))
	defer server.Close()

	got, err := NewClient(Config{APIKey: "k", BaseURL: server.URL}).Complete(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got.Usage.TotalTokens != 5 {
		t.Fatalf("expected derived total of 5, got %d", got.Usage.TotalTokens)
	}
}

func TestCompleteDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{APIKey: "k", BaseURL: server.URL}).Complete(context.Background(), Request{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 in error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", calls.Load())
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "   ", nil))
	defer server.Close()

	_, err := NewClient(Config{APIKey: "k", BaseURL: server.URL}).Complete(context.Background(), Request{Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "empty content") {
		t.Fatalf("expected empty content error, got %v", err)
	}
}

func TestCompleteRequiresKeyAndPrompt(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Complete(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("expected api key error")
	}
	client = NewClient(Config{APIKey: "k"})
	if _, err := client.Complete(context.Background(), Request{Prompt: "  "}); err == nil {
		t.Fatal("expected prompt error")
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "OK", map[string]int{"prompt_tokens": 1, "completion_tokens": 1}))
	defer server.Close()

	if err := NewClient(Config{APIKey: "k", BaseURL: server.URL}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer failing.Close()
	if err := NewClient(Config{APIKey: "bad", BaseURL: failing.URL}).HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}
