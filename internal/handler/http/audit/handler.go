package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"riskscan/internal/domain/entity"
	"riskscan/internal/handler/http/respond"
	auditUC "riskscan/internal/usecase/audit"
)

// maxHistoryLimit caps the limit query parameter.
const maxHistoryLimit = 1000

// Service is the audit use case as seen by the handlers.
type Service interface {
	Record(ctx context.Context, in auditUC.RecordInput) (*entity.AuditRecord, error)
	History(ctx context.Context, limit int) ([]*entity.AuditRecord, error)
}

// Register mounts the audit endpoints.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("POST /action", ActionHandler{svc})
	mux.Handle("GET /history", HistoryHandler{svc})
}

// ActionHandler serves POST /action.
type ActionHandler struct{ Svc Service }

func (h ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	rec, err := h.Svc.Record(r.Context(), auditUC.RecordInput{
		ArticleURL: req.ArticleURL,
		Action:     req.Action,
		Reason:     req.Reason,
		User:       req.User,
		Query:      req.Query,
	})
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, entity.ErrValidationFailed) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, ActionResponse{Success: true, ID: rec.ID})
}

// HistoryHandler serves GET /history, newest first.
type HistoryHandler struct{ Svc Service }

func (h HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxHistoryLimit {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("limit must be between 1 and "+strconv.Itoa(maxHistoryLimit)))
			return
		}
		limit = n
	}

	records, err := h.Svc.History(r.Context(), limit)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]RecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, newRecordDTO(rec))
	}
	respond.JSON(w, http.StatusOK, out)
}
