package audit_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskscan/internal/domain/entity"
	"riskscan/internal/infra/adapter/persistence/memory"
	"riskscan/internal/usecase/audit"
)

var fixedNow = time.Date(2025, 5, 14, 10, 0, 0, 0, time.FixedZone("JST", 9*60*60))

func newService() *audit.Service {
	return &audit.Service{Repo: memory.NewAuditRepo(), Now: func() time.Time { return fixedNow }}
}

func validInput() audit.RecordInput {
	return audit.RecordInput{
		ArticleURL: "https://www.nhtsa.gov/waymo-probe",
		Action:     "confirm",
		Reason:     "Regulator opened a formal probe",
		Query:      "  Waymo ",
	}
}

func TestRecord_Valid(t *testing.T) {
	svc := newService()

	rec, err := svc.Record(context.Background(), validInput())
	require.NoError(t, err)

	_, err = uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixedNow.UTC(), rec.Timestamp)
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
	assert.Equal(t, audit.DefaultUser, rec.User)
	assert.Equal(t, "Waymo", rec.Query)
	assert.Equal(t, entity.AuditActionConfirm, rec.Action)

	history, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)
}

func TestRecord_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*audit.RecordInput)
		field string
	}{
		{"missing url", func(in *audit.RecordInput) { in.ArticleURL = "" }, "url"},
		{"non-http url", func(in *audit.RecordInput) { in.ArticleURL = "javascript:alert(1)" }, "url"},
		{"unknown action", func(in *audit.RecordInput) { in.Action = "Escalate" }, "action"},
		{"missing query", func(in *audit.RecordInput) { in.Query = " " }, "query"},
		{"missing reason", func(in *audit.RecordInput) { in.Reason = "" }, "reason"},
		{"reason too long", func(in *audit.RecordInput) { in.Reason = strings.Repeat("x", entity.MaxReasonLength+1) }, "reason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService()
			in := validInput()
			tt.mut(&in)

			_, err := svc.Record(context.Background(), in)

			var vErr *entity.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.ErrorIs(t, err, entity.ErrValidationFailed)

			history, _ := svc.History(context.Background(), 0)
			assert.Empty(t, history, "invalid input must not be appended")
		})
	}
}

func TestRecord_KeepsGivenUser(t *testing.T) {
	in := validInput()
	in.User = "j.doe"
	rec, err := newService().Record(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "j.doe", rec.User)
}

type brokenRepo struct{}

func (brokenRepo) Append(context.Context, *entity.AuditRecord) error { return errors.New("disk full") }
func (brokenRepo) List(context.Context, int) ([]*entity.AuditRecord, error) {
	return nil, errors.New("disk full")
}

func TestRecord_StoreError(t *testing.T) {
	svc := &audit.Service{Repo: brokenRepo{}}

	_, err := svc.Record(context.Background(), validInput())
	assert.ErrorContains(t, err, "disk full")

	_, err = svc.History(context.Background(), 5)
	assert.ErrorContains(t, err, "disk full")
}

func TestHistory_NewestFirstAndLimit(t *testing.T) {
	svc := &audit.Service{Repo: memory.NewAuditRepo()}
	ctx := context.Background()
	var ids []string
	for _, reason := range []string{"one", "two", "three"} {
		in := validInput()
		in.Reason = reason
		rec, err := svc.Record(ctx, in)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	got, err := svc.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)

	got, err = svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
