package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/platform/healthpoll"
)

func TestServiceCheckRepository_Record(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	checkedAt := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO service_checks (service, url, status, db_ok, response_time_ms, checked_at)`)).
		WithArgs("api", "http://core:8080/health", "degraded", false, int64(42), checkedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewServiceCheckRepository(mock)
	err = repo.Record(context.Background(), healthpoll.Result{
		Service:      "api",
		URL:          "http://core:8080/health",
		Status:       healthpoll.StatusDegraded,
		ResponseTime: 42 * time.Millisecond,
		CheckedAt:    checkedAt,
	})
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestServiceCheckRepository_RecordCheckViolation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO service_checks`)).
		WithArgs("api", "", "sideways", false, int64(0), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: checkViolationCode})

	repo := NewServiceCheckRepository(mock)
	err = repo.Record(context.Background(), healthpoll.Result{Service: "api", Status: "sideways"})
	if !fault.Is(err, fault.BadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}
