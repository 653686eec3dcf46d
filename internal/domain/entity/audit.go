package entity

import "time"

// AuditAction is an analyst decision on a finding.
type AuditAction string

const (
	AuditActionConfirm AuditAction = "Confirm"
	AuditActionDismiss AuditAction = "Dismiss"
)

// AuditRecord is an append-only analyst decision.
type AuditRecord struct {
	ID         string
	Timestamp  time.Time
	User       string
	Query      string
	Action     AuditAction
	Reason     string
	ArticleURL string
}
