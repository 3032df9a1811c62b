package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sqlassist/sqlassist/internal/assistant"
	"github.com/sqlassist/sqlassist/internal/auth"
	"github.com/sqlassist/sqlassist/internal/errs"
	"github.com/sqlassist/sqlassist/internal/export"
)

type translateRequest struct {
	Question string `json:"question"`
}

type queryRequest struct {
	Question string `json:"question"`
	Execute  bool   `json:"execute"`
	Export   string `json:"export"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assistant == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSISTANT_NOT_CONFIGURED", "assistant is not configured", false, nil)
		return
	}
	if !auth.Authorize(w, r, auth.RoleQueryReader) {
		return
	}

	schema, err := deps.Assistant.SchemaText(r.Context())
	if err != nil {
		writeAssistantError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table":    deps.Assistant.Table().FullName(),
		"schema":   schema,
		"provider": deps.Assistant.Provider(),
		"model":    deps.Assistant.Model(),
	})
}

func handleTranslate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assistant == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSISTANT_NOT_CONFIGURED", "assistant is not configured", false, nil)
		return
	}
	if !auth.Authorize(w, r, auth.RoleQueryReader) {
		return
	}

	var req translateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	sql, err := deps.Assistant.GenerateSQL(r.Context(), req.Question)
	if err != nil {
		writeAssistantError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"natural_language_query": req.Question,
		"sql_query":              sql,
	})
}

func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Assistant == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASSISTANT_NOT_CONFIGURED", "assistant is not configured", false, nil)
		return
	}
	if !auth.Authorize(w, r, auth.RoleQueryReader) {
		return
	}

	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	if req.Export != "" {
		if !req.Execute {
			writeError(r.Context(), w, http.StatusBadRequest, "EXPORT_REQUIRES_EXECUTE", "export requires execute=true", false, nil)
			return
		}
		if !export.SupportedFormat(req.Export) {
			writeError(r.Context(), w, http.StatusBadRequest, "EXPORT_FORMAT_UNSUPPORTED", "export format must be csv or parquet", false, map[string]any{"format": req.Export})
			return
		}
	}
	if req.Execute && !auth.Authorize(w, r, auth.RoleQueryExecutor) {
		return
	}

	var (
		env assistant.Envelope
		err error
	)
	if req.Export != "" {
		env, err = deps.Assistant.QueryAndExport(r.Context(), req.Question, req.Export)
	} else {
		env, err = deps.Assistant.Query(r.Context(), req.Question, req.Execute)
	}
	if err != nil {
		writeAssistantError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return false
	}
	return true
}

// writeAssistantError maps error kinds that escape the assistant onto HTTP statuses.
func writeAssistantError(w http.ResponseWriter, r *http.Request, err error) {
	details := map[string]any{"details": err.Error()}
	switch errs.KindOf(err) {
	case errs.Configuration:
		writeError(r.Context(), w, http.StatusInternalServerError, "CONFIGURATION_ERROR", "assistant is misconfigured", false, details)
	case errs.Generation:
		writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_FAILED", "failed to generate SQL", true, details)
	case errs.Execution:
		writeError(r.Context(), w, http.StatusBadGateway, "WAREHOUSE_ERROR", "warehouse request failed", true, details)
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "request failed", false, details)
	}
}
