// Package audit serves the analyst decision log.
package audit

import (
	"time"

	"riskscan/internal/domain/entity"
)

// ActionRequest is the body of POST /action.
type ActionRequest struct {
	ArticleURL string `json:"articleUrl"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
	User       string `json:"user"`
	Query      string `json:"query"`
}

// ActionResponse acknowledges a recorded decision.
type ActionResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

// RecordDTO is one entry of GET /history.
type RecordDTO struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	User       string    `json:"user"`
	Query      string    `json:"query"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason"`
	ArticleURL string    `json:"articleUrl"`
}

func newRecordDTO(r *entity.AuditRecord) RecordDTO {
	return RecordDTO{
		ID:         r.ID,
		Timestamp:  r.Timestamp.UTC(),
		User:       r.User,
		Query:      r.Query,
		Action:     string(r.Action),
		Reason:     r.Reason,
		ArticleURL: r.ArticleURL,
	}
}
