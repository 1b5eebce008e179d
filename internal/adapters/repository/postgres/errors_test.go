package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
)

func TestTranslatePgError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		op   operation
		want fault.Kind
	}{
		{name: "unique", err: &pgconn.PgError{Code: uniqueViolationCode}, op: opWrite, want: fault.Conflict},
		{name: "fk on insert", err: &pgconn.PgError{Code: foreignKeyViolationCode}, op: opWrite, want: fault.NotFound},
		{name: "fk on delete", err: &pgconn.PgError{Code: foreignKeyViolationCode}, op: opDelete, want: fault.Conflict},
		{name: "check", err: &pgconn.PgError{Code: checkViolationCode}, op: opWrite, want: fault.BadRequest},
		{name: "bad date", err: &pgconn.PgError{Code: invalidDatetimeCode}, op: opWrite, want: fault.BadRequest},
		{name: "text rep", err: &pgconn.PgError{Code: invalidTextRepCode}, op: opRead, want: fault.BadRequest},
		{name: "other pg", err: &pgconn.PgError{Code: "57P01"}, op: opRead, want: fault.Internal},
		{name: "plain", err: errors.New("broken pipe"), op: opRead, want: fault.Internal},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := fault.KindOf(translatePgError(tc.err, tc.op)); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if translatePgError(nil, opRead) != nil {
		t.Fatal("expected nil for nil error")
	}
	if !errors.Is(translatePgError(context.Canceled, opRead), context.Canceled) {
		t.Fatal("expected context error to pass through")
	}
}
