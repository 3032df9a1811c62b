// Package nl2sql turns natural-language questions into SQL text by prompting
// an LLM provider.
package nl2sql

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/errs"
)

// Generator sends a prompt to one provider and returns fence-stripped SQL text.
// Output that is empty after stripping is reported as a Generation error, so
// callers never receive an empty statement.
type Generator interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewGenerator builds the generator selected by cfg.Provider. It validates
// credentials only and never touches the network.
func NewGenerator(cfg config.LLMConfig) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderOpenAI:
		gen, err = NewOpenAIGenerator(OpenAIConfig{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Timeout:     cfg.Timeout,
		})
	case config.ProviderGemini:
		gen, err = NewGeminiGenerator(GeminiConfig{
			BaseURL: cfg.Gemini.BaseURL,
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Timeout,
		})
	default:
		return nil, errs.Newf(errs.Configuration, "unsupported LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		gen = Paced(gen, cfg.RequestsPerMinute)
	}
	return gen, nil
}

// StripFences removes every ```sql and ``` marker and trims the result.
func StripFences(text string) string {
	text = strings.ReplaceAll(text, "```sql", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

type pacedGenerator struct {
	Generator
	limiter *rate.Limiter
}

// Paced waits on a token bucket of perMinute requests before each Generate call.
func Paced(gen Generator, perMinute int) Generator {
	interval := time.Minute / time.Duration(perMinute)
	return &pacedGenerator{
		Generator: gen,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (p *pacedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", errs.Provider(p.Name(), "unexpected error", fmt.Errorf("wait for request slot: %w", err))
	}
	return p.Generator.Generate(ctx, prompt)
}

// do executes req and returns the body of a successful response. Every
// failure is a Generation error attributed to provider.
func do(client *http.Client, provider string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, errs.Provider(provider, "unexpected error", fmt.Errorf("send request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Provider(provider, "unexpected error", fmt.Errorf("read response body: %w", err))
	}
	if resp.StatusCode >= 400 {
		return nil, errs.Provider(provider, statusMessage(resp.StatusCode),
			fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return body, nil
}

func statusMessage(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return "authentication failed, check the API key"
	case http.StatusTooManyRequests:
		return "rate limit exceeded, try again later"
	default:
		return "API error"
	}
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
