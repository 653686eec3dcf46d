package entity

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
	maxURLLength = 2048

	// MaxQueryLength bounds the entity name accepted by a scan.
	MaxQueryLength = 200

	// MaxReasonLength bounds the free-text reason of an audit decision.
	MaxReasonLength = 500
)

// NormalizeQuery trims and collapses whitespace in a screening query.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(q), " ")
}

// ValidateQuery checks that a screening query is present and reasonably sized.
// The returned error wraps ErrInvalidQuery.
func ValidateQuery(q string) error {
	q = NormalizeQuery(q)
	if q == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, &ValidationError{Field: "query", Message: "query is required"})
	}
	if utf8.RuneCountInString(q) > MaxQueryLength {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, &ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("query must not exceed %d characters", MaxQueryLength),
		})
	}
	return nil
}

// ValidateURL validates the format of an article URL.
// Only absolute http/https URLs with a host are accepted. No network lookups are made.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "URL is invalid"}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// ParseAuditAction maps a request value onto an AuditAction (case-insensitive).
func ParseAuditAction(s string) (AuditAction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirm":
		return AuditActionConfirm, nil
	case "dismiss":
		return AuditActionDismiss, nil
	default:
		return "", &ValidationError{Field: "action", Message: "action must be Confirm or Dismiss"}
	}
}

// Validate checks an AuditRecord before it is appended to the audit log.
func (r *AuditRecord) Validate() error {
	if err := ValidateURL(r.ArticleURL); err != nil {
		return err
	}
	if r.Action != AuditActionConfirm && r.Action != AuditActionDismiss {
		return &ValidationError{Field: "action", Message: "action must be Confirm or Dismiss"}
	}
	if NormalizeQuery(r.Query) == "" {
		return &ValidationError{Field: "query", Message: "query is required"}
	}
	if strings.TrimSpace(r.Reason) == "" {
		return &ValidationError{Field: "reason", Message: "reason is required"}
	}
	if utf8.RuneCountInString(r.Reason) > MaxReasonLength {
		return &ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("reason must not exceed %d characters", MaxReasonLength),
		}
	}
	return nil
}
