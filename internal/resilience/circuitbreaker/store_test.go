package circuitbreaker

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
)

func TestStore_ExecContext(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := NewStore(db, "postgres")
	mock.ExpectExec("INSERT INTO audit_records").WillReturnResult(sqlmock.NewResult(1, 1))

	if _, err := s.ExecContext(context.Background(), "INSERT INTO audit_records (id) VALUES ($1)", "x"); err != nil {
		t.Fatalf("ExecContext: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestStore_OpensAfterRepeatedFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := NewStore(db, "sqlite")
	dbErr := errors.New("database is locked")
	for i := 0; i < 5; i++ {
		mock.ExpectQuery("SELECT").WillReturnError(dbErr)
	}

	for i := 0; i < 5; i++ {
		if _, err := s.QueryContext(context.Background(), "SELECT id FROM audit_records"); !errors.Is(err, dbErr) {
			t.Fatalf("attempt %d: expected db error, got %v", i, err)
		}
	}

	if s.State() != gobreaker.StateOpen {
		t.Fatalf("expected Open, got %v", s.State())
	}

	_, err = s.QueryContext(context.Background(), "SELECT id FROM audit_records")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if s.DB() != db {
		t.Error("DB() should return the wrapped handle")
	}
}
