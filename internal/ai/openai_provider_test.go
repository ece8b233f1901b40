package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/jobtrack/internal/model"
)

var testSchema = categorySchema([]string{"Data Analyst", "Other IT roles"})

func makeTestServer(t *testing.T, statusCode int, body any) (*httptest.Server, *http.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, srv.Client()
}

func reply(content string) chatResponse {
	return chatResponse{Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}}}}
}

func TestComplete_Success(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, reply(`{"category":"Data Analyst"}`))

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	got, err := provider.Complete(context.Background(), "classify this", testSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"category":"Data Analyst"}` {
		t.Errorf("got %q, want json string", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	_, err := provider.Complete(context.Background(), "classify this", testSchema)

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", httpErr.StatusCode)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv, client := makeTestServer(t, http.StatusOK, chatResponse{})

	provider := NewOpenAIProvider(srv.URL, "test-key", "test-model", client)
	if _, err := provider.Complete(context.Background(), "classify this", testSchema); err == nil {
		t.Fatal("expected error when LLM returns no choices")
	}
}

func TestComplete_SendsAuthAndSchema(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(reply("{}"))
	}))
	defer srv.Close()

	provider := NewOpenAIProvider(srv.URL+"/", "my-secret-key", "gpt-4o-mini", srv.Client())
	_, _ = provider.Complete(context.Background(), "classify this", testSchema)

	if gotAuth != "Bearer my-secret-key" {
		t.Errorf("Authorization header = %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Model != "gpt-4o-mini" || gotReq.Temperature != 0 {
		t.Errorf("model/temperature = %q/%d", gotReq.Model, gotReq.Temperature)
	}
	if gotReq.ResponseFormat.Type != "json_schema" || gotReq.ResponseFormat.JSONSchema.Name != "job_category" {
		t.Errorf("response_format = %+v", gotReq.ResponseFormat)
	}
	if !gotReq.ResponseFormat.JSONSchema.Strict {
		t.Error("schema should be strict")
	}
}
