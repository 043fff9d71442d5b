package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewOpenAIProviderDefaults(t *testing.T) {
	p := NewOpenAIProvider("sk-test", "", "")
	if p.apiBase != "https://api.openai.com/v1" {
		t.Errorf("apiBase = %q", p.apiBase)
	}
	if p.DefaultModel() != "gpt-4.1" {
		t.Errorf("default model = %q", p.DefaultModel())
	}
	p = NewOpenAIProvider("sk-test", "http://localhost:1234/v1/", "gpt-4o")
	if p.apiBase != "http://localhost:1234/v1" {
		t.Errorf("apiBase = %q, trailing slash should be trimmed", p.apiBase)
	}
}

func TestChatRequestShape(t *testing.T) {
	var captured struct {
		path string
		auth string
		body map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL, "gpt-4.1")
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hi"},
		},
		Tools: []ToolDefinition{{
			Type:     "function",
			Function: FunctionDef{Name: "get_seo_data", Parameters: map[string]any{"type": "object"}},
		}},
		MaxTokens:   256,
		Temperature: 0.5,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if captured.path != "/chat/completions" {
		t.Errorf("path = %q", captured.path)
	}
	if captured.auth != "Bearer sk-test" {
		t.Errorf("auth = %q", captured.auth)
	}
	if captured.body["model"] != "gpt-4.1" {
		t.Errorf("model = %v", captured.body["model"])
	}
	if captured.body["max_tokens"] != float64(256) {
		t.Errorf("max_tokens = %v", captured.body["max_tokens"])
	}
	if captured.body["tool_choice"] != "auto" {
		t.Errorf("tool_choice = %v", captured.body["tool_choice"])
	}
	msgs, _ := captured.body["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("messages = %v", captured.body["messages"])
	}

	if resp.Content != "hello" || resp.FinishReason != "stop" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Usage.PromptTokens != 12 || resp.Usage.TotalTokens != 15 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestChatParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [
						{"id": "call_1", "type": "function", "function": {"name": "get_seo_data", "arguments": "{\"scope\": \"all\"}"}},
						{"id": "call_2", "type": "function", "function": {"name": "get_analytics", "arguments": "not json"}}
					]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 10, "total_tokens": 50}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL, "gpt-4.1")
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "go"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(resp.ToolCalls) != 2 {
		t.Fatalf("got %d tool calls, want 2", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].ID != "call_1" || resp.ToolCalls[0].Name != "get_seo_data" {
		t.Errorf("first call = %+v", resp.ToolCalls[0])
	}
	if resp.ToolCalls[0].Arguments["scope"] != "all" {
		t.Errorf("arguments = %v", resp.ToolCalls[0].Arguments)
	}
	// Unparseable arguments are preserved raw instead of dropped.
	if resp.ToolCalls[1].Arguments["raw"] != "not json" {
		t.Errorf("raw arguments = %v", resp.ToolCalls[1].Arguments)
	}
}

func TestChatUsesDefaultModel(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		model, _ = body["model"].(string)
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}, "finish_reason": "stop"}], "usage": {}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL, "gpt-4.1-mini")
	if _, err := p.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if model != "gpt-4.1-mini" {
		t.Errorf("model = %q", model)
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL, "gpt-4.1")
	_, err := p.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 429") {
		t.Errorf("err = %v", err)
	}
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [], "usage": {}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL, "gpt-4.1")
	if _, err := p.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "hi"}}}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
