package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/personnel-core/internal/core/fault"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
	invalidDatetimeCode     = "22007"
	datetimeOverflowCode    = "22008"
	invalidTextRepCode      = "22P02"
	numericOutOfRangeCode   = "22003"
)

type operation int

const (
	opRead operation = iota
	opWrite
	opDelete
)

// translatePgError はドライバーエラーを fault 種別へ変換します。
func translatePgError(err error, op operation) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fault.Wrap(fault.Internal, err, "postgres")
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fault.Wrap(fault.Conflict, err, "duplicate value violates "+pgErr.ConstraintName)
	case foreignKeyViolationCode:
		if op == opDelete {
			return fault.Wrap(fault.Conflict, err, "record is still referenced")
		}
		return fault.Wrap(fault.NotFound, err, "referenced record does not exist")
	case checkViolationCode, notNullViolationCode:
		return fault.Wrap(fault.BadRequest, err, "value violates constraint "+pgErr.ConstraintName)
	case invalidDatetimeCode, datetimeOverflowCode, invalidTextRepCode, numericOutOfRangeCode:
		return fault.Wrap(fault.BadRequest, err, "invalid value")
	default:
		return fault.Wrap(fault.Internal, err, "postgres")
	}
}
