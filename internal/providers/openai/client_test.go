package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Options{APIKey: "dummy"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if client.Model() != "gpt-4o-mini" {
		t.Fatalf("Model() = %q, want %q", client.Model(), "gpt-4o-mini")
	}
}

func TestComplete(t *testing.T) {
	var captured chatRequest
	client, err := NewClient(Options{
		APIKey: "dummy",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Fatalf("unexpected path %q", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer dummy" {
				t.Fatalf("Authorization = %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"choices":[{"message":{"content":"  hello  "}}]}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	got, err := client.Complete(context.Background(), "system prompt", "user prompt", 0.8, 2000)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "hello" {
		t.Fatalf("Complete() = %q, want %q", got, "hello")
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
	if captured.Temperature != 0.8 || captured.MaxTokens != 2000 {
		t.Fatalf("temperature/max_tokens = %v/%v", captured.Temperature, captured.MaxTokens)
	}
}

func TestCompleteErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http_error", status: http.StatusTooManyRequests, body: `{}`},
		{name: "no_choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "empty_content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(Options{
				APIKey: "dummy",
				HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
					return jsonResponse(tc.status, tc.body), nil
				})},
			})
			if err != nil {
				t.Fatalf("NewClient returned error: %v", err)
			}
			if _, err := client.Complete(context.Background(), "s", "u", 0, 0); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
