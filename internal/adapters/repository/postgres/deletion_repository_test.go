package postgres

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/deletion"
	"github.com/ogurasousui/personnel-core/internal/core/records"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
	"github.com/ogurasousui/personnel-core/internal/core/session"
	pgdb "github.com/ogurasousui/personnel-core/internal/platform/db/postgres"
)

var deletionAdmin = session.Principal{AccountID: 1, Role: account.RolePrivileged}

func expectSweep(t *testing.T, mock pgxmock.PgxPoolIface, employeeID int64) {
	t.Helper()
	registry := records.DefaultRegistry()
	for _, kind := range resource.Dependents() {
		schema, err := registry.Lookup(kind)
		if err != nil {
			t.Fatalf("lookup %s: %v", kind, err)
		}
		mock.ExpectExec(regexp.QuoteMeta(buildDeleteByOwner(schema))).
			WithArgs(employeeID).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
	}
}

func newDeletionService(mock pgxmock.PgxPoolIface) *deletion.Service {
	repo := NewDeletionRepository(mock, records.DefaultRegistry())
	return deletion.NewService(repo, pgdb.NewTransactionManager(mock), 0, slog.New(slog.DiscardHandler))
}

func TestDeleteAccount_CommitsWholeGraph(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM accounts WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM employees WHERE account_id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(70)))
	expectSweep(t, mock, 70)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id = $1`)).
		WithArgs(int64(70)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	if err := newDeletionService(mock).DeleteAccount(context.Background(), deletionAdmin, 7); err != nil {
		t.Fatalf("DeleteAccount returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteAccount_ForcedFailureRollsBack(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	forced := errors.New("connection reset by peer")

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM accounts WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM employees WHERE account_id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(70)))
	expectSweep(t, mock, 70)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id = $1`)).
		WithArgs(int64(70)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM accounts WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnError(forced)
	mock.ExpectRollback()

	err = newDeletionService(mock).DeleteAccount(context.Background(), deletionAdmin, 7)
	if !errors.Is(err, forced) {
		t.Fatalf("expected forced failure, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected rollback and no commit: %v", err)
	}
}

func TestDeleteAccount_MissingAccountRollsBack(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM accounts WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(8)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err = newDeletionService(mock).DeleteAccount(context.Background(), deletionAdmin, 8)
	if !errors.Is(err, account.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteAccount_DeadlockIsNotRetried(t *testing.T) {
	t.Parallel()

	firstDependent, err := records.DefaultRegistry().Lookup(resource.Dependents()[0])
	if err != nil {
		t.Fatalf("lookup dependent: %v", err)
	}

	type step struct {
		query string
		exec  bool
		arg   int64
		row   int64
	}
	steps := []step{
		{query: `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, arg: 7, row: 7},
		{query: `SELECT id FROM employees WHERE account_id = $1 FOR UPDATE`, arg: 7, row: 70},
		{query: buildDeleteByOwner(firstDependent), exec: true, arg: 70},
	}

	for failAt := range steps {
		t.Run(steps[failAt].query, func(t *testing.T) {
			t.Parallel()

			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock pool: %v", err)
			}
			defer mock.Close()

			deadlock := &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}

			mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
			for i, st := range steps[:failAt+1] {
				if st.exec {
					e := mock.ExpectExec(regexp.QuoteMeta(st.query)).WithArgs(st.arg)
					if i == failAt {
						e.WillReturnError(deadlock)
					} else {
						e.WillReturnResult(pgxmock.NewResult("DELETE", 1))
					}
					continue
				}
				q := mock.ExpectQuery(regexp.QuoteMeta(st.query)).WithArgs(st.arg)
				if i == failAt {
					q.WillReturnError(deadlock)
				} else {
					q.WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(st.row))
				}
			}
			mock.ExpectRollback()

			err = newDeletionService(mock).DeleteAccount(context.Background(), deletionAdmin, 7)
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) || pgErr.Code != "40P01" {
				t.Fatalf("expected deadlock to reach the caller, got %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expected one begin and one rollback: %v", err)
			}
		})
	}
}
