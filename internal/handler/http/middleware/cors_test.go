package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhitelistValidator(t *testing.T) {
	v := NewWhitelistValidator([]string{" https://Dashboard.example/ ", "", "http://localhost:3000"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://dashboard.example", true},
		{"HTTPS://DASHBOARD.EXAMPLE/", true},
		{"http://localhost:3000", true},
		{"http://localhost:3001", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.want, v.IsAllowed(tt.origin))
		})
	}

	assert.True(t, NewWhitelistValidator([]string{"*"}).IsAllowed("https://anything.example"))
	assert.False(t, NewWhitelistValidator(nil).IsAllowed("https://anything.example"))
}

func TestCORS(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	h := CORS(CORSConfig{Validator: NewWhitelistValidator([]string{"https://dashboard.example"})})(next)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodOptions, "/scan", nil)
		req.Header.Set("Origin", "https://dashboard.example")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, called)
		assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("actual request from allowed origin", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodPost, "/scan", nil)
		req.Header.Set("Origin", "https://dashboard.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("disallowed origin gets no headers", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodPost, "/scan", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.True(t, called)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same origin", func(t *testing.T) {
		called = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))

		assert.True(t, called)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
