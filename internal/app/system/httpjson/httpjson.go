// Package httpjson writes the JSON envelopes used by every API handler:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": {"code": "...", "message": "..."}}
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/imaggar-technologies/brintelli/internal/app/store/leads"
	"github.com/imaggar-technologies/brintelli/internal/domain/pipeline"
	"go.uber.org/zap"
)

// Error codes carried in the error envelope.
const (
	CodeValidation   = "validation_error"
	CodeForbidden    = "permission_denied"
	CodeNotFound     = "not_found"
	CodeGuard        = "guard_violation"
	CodeConflict     = "conflict"
	CodeDuplicate    = "duplicate"
	CodeUnauthorized = "unauthorized"
	CodeRateLimited  = "rate_limited"
	CodeInternal     = "internal_error"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, data any) {
	Write(w, http.StatusOK, data)
}

// Write writes a success envelope with the given status.
func Write(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: msg}})
}

// FromError maps err onto a status and error envelope. Unknown errors are
// logged and reported as 500 without leaking their text.
func FromError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		ve *pipeline.ValidationError
		ge *pipeline.GuardError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, envelope{Error: &errorBody{
			Code: CodeValidation, Message: ve.Error(), Field: ve.Field,
		}})
	case errors.Is(err, pipeline.ErrPermissionDenied):
		Error(w, http.StatusForbidden, CodeForbidden, "you do not have permission to do that")
	case errors.Is(err, leads.ErrNotFound):
		Error(w, http.StatusNotFound, CodeNotFound, "lead not found")
	case errors.As(err, &ge):
		Error(w, http.StatusConflict, CodeGuard, ge.Error())
	case errors.Is(err, leads.ErrConflict):
		Error(w, http.StatusConflict, CodeConflict, "the lead was changed by someone else; reload and try again")
	case errors.Is(err, leads.ErrDuplicate):
		Error(w, http.StatusConflict, CodeDuplicate, "a lead with this email already exists")
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		Error(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

// Decode reads a JSON body into dst, rejecting unknown fields. A decode
// failure is returned as a validation error.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &pipeline.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
