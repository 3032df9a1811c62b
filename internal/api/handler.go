// Package api serves the assistant over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sqlassist/sqlassist/internal/assistant"
	"github.com/sqlassist/sqlassist/internal/config"
	"github.com/sqlassist/sqlassist/internal/history"
	"github.com/sqlassist/sqlassist/internal/observability"
)

type ReadinessCheck func(ctx context.Context) error

// Assistant is the part of *assistant.Assistant the handlers call.
type Assistant interface {
	Table() config.Table
	Provider() string
	Model() string
	SchemaText(ctx context.Context) (string, error)
	GenerateSQL(ctx context.Context, question string) (string, error)
	Query(ctx context.Context, question string, execute bool) (assistant.Envelope, error)
	QueryAndExport(ctx context.Context, question, format string) (assistant.Envelope, error)
}

// ExportReader streams previously exported result files.
type ExportReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Assistant         Assistant
	History           history.Store
	Exports           ExportReader
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(observability.TraceMiddleware, observability.MetricsMiddleware)
	if deps.Logger != nil {
		r.Use(observability.LoggingMiddleware(deps.Logger))
	}

	r.Get("/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	r.Get("/v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	r.Handle("/v1/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.Auth.Required {
			if deps.AuthMiddleware == nil {
				if deps.Logger != nil {
					deps.Logger.Error("auth required but auth middleware missing")
				}
				r.Use(func(http.Handler) http.Handler {
					return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
					})
				})
			} else {
				r.Use(deps.AuthMiddleware)
			}
		}

		r.Get("/v1/schema", func(w http.ResponseWriter, r *http.Request) {
			handleSchema(deps, w, r)
		})
		r.Post("/v1/translate", func(w http.ResponseWriter, r *http.Request) {
			handleTranslate(deps, w, r)
		})
		r.Post("/v1/query", func(w http.ResponseWriter, r *http.Request) {
			handleQuery(deps, w, r)
		})
		r.Get("/v1/history", func(w http.ResponseWriter, r *http.Request) {
			handleListHistory(deps, w, r)
		})
		r.Get("/v1/history/{queryID}", func(w http.ResponseWriter, r *http.Request) {
			handleGetHistory(deps, w, r)
		})
		r.Get("/v1/exports/*", func(w http.ResponseWriter, r *http.Request) {
			handleGetExport(deps, w, r)
		})
	})

	return r
}

func CheckWarehouseConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if !cfg.Warehouse.Complete() {
			return errors.New("warehouse connection is not configured")
		}
		if !cfg.Table.Valid() {
			return errors.New("target table is not configured")
		}
		return nil
	}
}

func CheckObjectStoreConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if !cfg.Export.Enabled {
			return nil
		}
		if cfg.Export.ObjectStore.Endpoint == "" {
			return errors.New("object store endpoint is not configured")
		}
		if cfg.Export.ObjectStore.Bucket == "" {
			return errors.New("object store bucket is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
