package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskscan/internal/domain/entity"
	"riskscan/internal/handler/http/middleware"
	"riskscan/internal/handler/http/requestid"
	"riskscan/internal/infra/adapter/persistence/memory"
	auditUC "riskscan/internal/usecase/audit"
)

type echoScanner struct{}

func (echoScanner) Scan(_ context.Context, q string) (entity.ScanResult, error) {
	if err := entity.ValidateQuery(q); err != nil {
		return entity.ScanResult{}, err
	}
	return entity.ScanResult{Query: entity.NormalizeQuery(q), Brief: "nothing adverse"}, nil
}

type panicScanner struct{}

func (panicScanner) Scan(context.Context, string) (entity.ScanResult, error) {
	panic("scanner exploded")
}

func newTestRouter(scanner interface {
	Scan(context.Context, string) (entity.ScanResult, error)
}, perMinute int) http.Handler {
	return NewRouter(RouterConfig{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Scan:        scanner,
		Audit:       &auditUC.Service{Repo: memory.NewAuditRepo()},
		ScanLimiter: NewIPRateLimiter(perMinute),
		CORS:        middleware.CORSConfig{Validator: middleware.NewWhitelistValidator([]string{"https://dashboard.example"})},
	})
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.44:1000"
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Scan(t *testing.T) {
	h := newTestRouter(echoScanner{}, 10)

	rec := post(h, "/scan", `{"query":"Waymo"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"query":"Waymo","clusters":[],"relatedEntities":[],"brief":"nothing adverse","socialSignals":[]}`,
		rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestid.RequestIDHeader))
	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ScanRateLimited(t *testing.T) {
	h := newTestRouter(echoScanner{}, 2)

	assert.Equal(t, http.StatusOK, post(h, "/scan", `{"query":"Waymo"}`).Code)
	assert.Equal(t, http.StatusOK, post(h, "/api/scan", `{"query":"Waymo"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, post(h, "/scan", `{"query":"Waymo"}`).Code)

	rec := post(h, "/action", `{"articleUrl":"https://a.example/x","action":"Confirm","reason":"r","query":"Waymo"}`)
	assert.Equal(t, http.StatusOK, rec.Code, "audit endpoints are not throttled")
}

func TestRouter_BodyTooLarge(t *testing.T) {
	h := newTestRouter(echoScanner{}, 10)

	body := `{"query":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	rec := post(h, "/scan", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRouter_PanicIsRecovered(t *testing.T) {
	h := newTestRouter(panicScanner{}, 10)

	rec := post(h, "/scan", `{"query":"Waymo"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRouter_AuditRoundTrip(t *testing.T) {
	h := newTestRouter(echoScanner{}, 10)

	rec := post(h, "/action", `{"articleUrl":"https://a.example/x","action":"Dismiss","reason":"not our Waymo","query":"Waymo"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"Dismiss"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/history", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Probes(t *testing.T) {
	h := newTestRouter(echoScanner{}, 10)

	for path, want := range map[string]int{
		"/live":    http.StatusOK,
		"/health":  http.StatusOK,
		"/metrics": http.StatusOK,
		"/missing": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestRouter_Preflight(t *testing.T) {
	h := newTestRouter(echoScanner{}, 10)

	req := httptest.NewRequest(http.MethodOptions, "/scan", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
