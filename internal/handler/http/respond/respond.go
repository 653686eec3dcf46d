// Package respond writes JSON responses. Error bodies are sanitized so that
// provider keys and internal details never reach clients.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"riskscan/internal/domain/entity"
)

// safeFragments mark error messages that describe a client mistake.
var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"must be",
	"cannot be",
	"too long",
	"too short",
	"rate limit exceeded",
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes {"error": err.Error()} without sanitizing.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// SafeError returns validation errors to the client as they are and replaces
// everything else, and every 5xx, with "internal server error". The original
// error is logged with secrets masked.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	if code < http.StatusInternalServerError && isClientError(err) {
		JSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}

func isClientError(err error) bool {
	if errors.Is(err, entity.ErrValidationFailed) || errors.Is(err, entity.ErrInvalidQuery) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, f := range safeFragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}
