package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, status int, content string, calls *int32, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got != nil {
			_ = json.NewDecoder(r.Body).Decode(got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatReturnsCompletion(t *testing.T) {
	var calls int32
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, "Estoy aquí para escucharte.", &calls, &got)
	c := NewOpenAIClient(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1", ChatModel: "gpt-4o", ClassifierModel: "gpt-4o-mini"})

	reply, err := c.Chat(context.Background(), []Message{
		{Role: "system", Content: "persona"},
		{Role: "patient", Content: "hola"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Estoy aquí para escucharte." {
		t.Fatalf("reply = %q", reply)
	}
	if got.Model != "gpt-4o" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != "user" {
		t.Errorf("unknown roles should be coerced to user: %+v", got.Messages)
	}
}

func TestClassifyUsesClassifierModel(t *testing.T) {
	var calls int32
	var got capturedRequest
	srv := newTestServer(t, http.StatusOK, "crisis", &calls, &got)
	c := NewOpenAIClient(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1", ChatModel: "gpt-4o", ClassifierModel: "gpt-4o-mini"})

	label, err := c.Classify(context.Background(), []Message{{Role: "user", Content: "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "crisis" || got.Model != "gpt-4o-mini" {
		t.Fatalf("label=%q model=%q", label, got.Model)
	}
}

func TestChatAPIErrorIsUpstreamAndNotRetried(t *testing.T) {
	var calls int32
	srv := newTestServer(t, http.StatusTooManyRequests, "", &calls, nil)
	c := NewOpenAIClient(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})

	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hola"}})
	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *UpstreamError, got %T %v", err, err)
	}
	if upstream.Op != "chat" {
		t.Errorf("op = %q", upstream.Op)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected exactly one attempt, got %d", n)
	}
}

func TestChatEmptyCompletion(t *testing.T) {
	var calls int32
	srv := newTestServer(t, http.StatusOK, "   ", &calls, nil)
	c := NewOpenAIClient(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})

	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hola"}})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}
