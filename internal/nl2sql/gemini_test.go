package nl2sql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sqlassist/sqlassist/internal/errs"
)

func TestGeminiGeneratorSendsGenerateContent(t *testing.T) {
	var captured struct {
		Contents []geminiContent `json:"contents"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-pro:generateContent" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "g-key" {
			t.Fatalf("x-goog-api-key = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + "```sql\\nSELECT region, SUM(revenue) " + `"},{"text":"FROM t GROUP BY region\n` + "```" + `"}]}}]}`))
	}))
	defer server.Close()

	gen, err := NewGeminiGenerator(GeminiConfig{BaseURL: server.URL, APIKey: "g-key"})
	if err != nil {
		t.Fatalf("NewGeminiGenerator() error = %v", err)
	}
	sql, err := gen.Generate(context.Background(), "PROMPT")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if sql != "SELECT region, SUM(revenue) FROM t GROUP BY region" {
		t.Fatalf("Generate() = %q", sql)
	}
	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 1 || captured.Contents[0].Parts[0].Text != "PROMPT" {
		t.Fatalf("contents = %+v", captured.Contents)
	}
}

func TestGeminiGeneratorMapsFailures(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusForbidden, `{"error":{"message":"API key not valid"}}`, "authentication failed"},
		{http.StatusTooManyRequests, `{"error":{"message":"quota"}}`, "rate limit exceeded"},
		{http.StatusServiceUnavailable, `{}`, "API error"},
		{http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, "unexpected error"},
		{http.StatusOK, `{"candidates":[]}`, "unexpected error"},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		gen, _ := NewGeminiGenerator(GeminiConfig{BaseURL: server.URL, APIKey: "g"})
		_, err := gen.Generate(context.Background(), "p")
		server.Close()

		if !errs.IsKind(err, errs.Generation) {
			t.Fatalf("status %d: error = %v, want generation error", tc.status, err)
		}
		if !strings.Contains(err.Error(), tc.want) || !strings.HasPrefix(err.Error(), "gemini: ") {
			t.Fatalf("status %d: error = %q, want %q", tc.status, err, tc.want)
		}
	}
}
