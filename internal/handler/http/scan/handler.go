package scan

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"riskscan/internal/domain/entity"
	"riskscan/internal/handler/http/respond"
	"riskscan/internal/observability/logging"
	scanUC "riskscan/internal/usecase/scan"
)

// Scanner runs one screening.
type Scanner interface {
	Scan(ctx context.Context, query string) (entity.ScanResult, error)
}

// Register mounts the scan endpoints. limit wraps them with the per-client
// rate limiter; nil disables it.
func Register(mux *http.ServeMux, svc Scanner, limit func(http.Handler) http.Handler) {
	var h http.Handler = Handler{Svc: svc}
	if limit != nil {
		h = limit(h)
	}
	mux.Handle("POST /scan", h)
	mux.Handle("POST /api/scan", h)
}

// Handler serves POST /scan.
type Handler struct{ Svc Scanner }

// ServeHTTP screens the query in the body. Only a malformed body or an
// invalid query is a client error; any other failure still answers 200
// with an empty result and an advisory the dashboard can render.
func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too long"))
			return
		}
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	// In-flight provider calls run to their own deadlines even if the client
	// goes away.
	result, err := h.Svc.Scan(context.WithoutCancel(r.Context()), req.Query)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidQuery) || errors.Is(err, entity.ErrValidationFailed) {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		query := entity.NormalizeQuery(req.Query)
		logging.ForScan(r.Context(), query).Error("scan failed",
			slog.String("error", respond.SanitizeError(err)))
		result = entity.ScanResult{
			Query:    query,
			Brief:    scanUC.FallbackBrief(query, 0),
			Advisory: scanUC.AdvisoryFailure,
		}
	}
	respond.JSON(w, http.StatusOK, NewResponse(result))
}
