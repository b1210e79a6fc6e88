package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int64   `json:"max_tokens"`
}

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-test",
	"choices": [
		{"index": 0, "message": {"role": "assistant", "content": "pong"}, "finish_reason": "stop"}
	]
}`

func TestComplete(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer ts.Close()

	client := NewClient("test-key", ts.URL, 5*time.Second)

	out, err := client.Complete(context.Background(), Request{
		Model: "gpt-test",
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "ping"},
		},
		Temperature: 0.2,
		MaxTokens:   16,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "pong" {
		t.Errorf("expected pong, got %q", out)
	}

	if got.Model != "gpt-test" {
		t.Errorf("expected model gpt-test, got %s", got.Model)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "be brief" {
		t.Errorf("unexpected system message %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "ping" {
		t.Errorf("unexpected user message %+v", got.Messages[1])
	}
	if got.Temperature == nil || *got.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", got.Temperature)
	}
	if got.MaxTokens == nil || *got.MaxTokens != 16 {
		t.Errorf("expected max_tokens 16, got %v", got.MaxTokens)
	}
}

func TestCompleteDefaultSampling(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer ts.Close()

	client := NewClient("test-key", ts.URL, 5*time.Second)

	_, err := client.Complete(context.Background(), Request{
		Model:       "gpt-test",
		Messages:    []Message{{Role: RoleUser, Content: "ping"}},
		Temperature: -1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Temperature != nil {
		t.Errorf("expected temperature omitted, got %v", *got.Temperature)
	}
	if got.MaxTokens != nil {
		t.Errorf("expected max_tokens omitted, got %v", *got.MaxTokens)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "choices": []}`))
	}))
	defer ts.Close()

	client := NewClient("test-key", ts.URL, 5*time.Second)

	_, err := client.Complete(context.Background(), Request{
		Model:    "gpt-test",
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})
	if err == nil {
		t.Fatal("expected an error for a response with no choices")
	}
}

func TestCompleteAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer ts.Close()

	client := NewClient("bad-key", ts.URL, 5*time.Second)

	_, err := client.Complete(context.Background(), Request{
		Model:    "gpt-test",
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
	})
	if err == nil {
		t.Fatal("expected an error for a 401 response")
	}
}
