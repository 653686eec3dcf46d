// Package middleware holds cross-cutting HTTP middleware that is configured
// independently of the routes.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig is the cross-origin policy of the API.
type CORSConfig struct {
	// Validator decides which origins receive CORS headers.
	Validator *WhitelistValidator

	// AllowedMethods defaults to GET, POST, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders defaults to Content-Type, X-Request-ID.
	AllowedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds. Zero means 86400.
	MaxAge int

	Logger *slog.Logger
}

// CORS answers preflight requests from allowed origins with 204 and
// decorates their actual requests. Requests from other origins pass through
// without CORS headers, so the browser blocks the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(orDefault(cfg.AllowedMethods, []string{"GET", "POST", "OPTIONS"}), ", ")
	headers := strings.Join(orDefault(cfg.AllowedHeaders, []string{"Content-Type", "X-Request-ID"}), ", ")
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 86400
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.Validator == nil || !cfg.Validator.IsAllowed(origin) {
				logger.Warn("CORS: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WhitelistValidator matches origins case-insensitively, ignoring a trailing
// slash. The entry "*" allows every origin.
type WhitelistValidator struct {
	allowAll bool
	origins  map[string]struct{}
}

// NewWhitelistValidator builds a validator from configured origins. Blank
// entries are ignored.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	v := &WhitelistValidator{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = normalizeOrigin(o)
		switch o {
		case "":
		case "*":
			v.allowAll = true
		default:
			v.origins[o] = struct{}{}
		}
	}
	return v
}

// IsAllowed reports whether origin may call the API.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	if v.allowAll {
		return true
	}
	_, ok := v.origins[origin]
	return ok
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
