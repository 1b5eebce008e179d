package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/records"
	"github.com/ogurasousui/personnel-core/internal/core/resource"
	pgdb "github.com/ogurasousui/personnel-core/internal/platform/db/postgres"
)

// DeletionRepository は連鎖削除の各ステップを実行する実装です。
// 呼び出しは TransactionManager が張ったトランザクション内で行われる前提です。
type DeletionRepository struct {
	pool    pgdb.Queryer
	schemas *records.Registry
}

// NewDeletionRepository は DeletionRepository を生成します。
func NewDeletionRepository(pool pgdb.Queryer, schemas *records.Registry) *DeletionRepository {
	return &DeletionRepository{pool: pool, schemas: schemas}
}

// LockAccount はアカウント行を FOR UPDATE でロックします。
func (r *DeletionRepository) LockAccount(ctx context.Context, accountID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var id int64
	if err := exec.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.ErrAccountNotFound
		}
		return translatePgError(err, opRead)
	}
	return nil
}

// EmployeeForAccount は紐づく従業員 ID を返します。
func (r *DeletionRepository) EmployeeForAccount(ctx context.Context, accountID int64) (*int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var id int64
	if err := exec.QueryRow(ctx, `SELECT id FROM employees WHERE account_id = $1 FOR UPDATE`, accountID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translatePgError(err, opRead)
	}
	return &id, nil
}

// LockEmployee は従業員行を FOR UPDATE でロックします。
func (r *DeletionRepository) LockEmployee(ctx context.Context, employeeID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var id int64
	if err := exec.QueryRow(ctx, `SELECT id FROM employees WHERE id = $1 FOR UPDATE`, employeeID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return records.ErrRecordNotFound
		}
		return translatePgError(err, opRead)
	}
	return nil
}

// DeleteDependents は従属種別の行のうち、従業員が所有するものを削除します。
func (r *DeletionRepository) DeleteDependents(ctx context.Context, kind resource.Kind, employeeID int64) (int64, error) {
	schema, err := r.schemas.Lookup(kind)
	if err != nil {
		return 0, err
	}
	if !schema.Owned() || schema.OwnerIsRowID() {
		return 0, fault.Newf(fault.Internal, "%s is not an employee dependent", kind)
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, buildDeleteByOwner(schema), employeeID)
	if err != nil {
		return 0, translatePgError(err, opDelete)
	}
	return tag.RowsAffected(), nil
}

// DeleteEmployee は従業員行を削除します。
func (r *DeletionRepository) DeleteEmployee(ctx context.Context, employeeID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, employeeID)
	if err != nil {
		return translatePgError(err, opDelete)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrRecordNotFound
	}
	return nil
}

// DeleteAccount はアカウント行を削除します。
func (r *DeletionRepository) DeleteAccount(ctx context.Context, accountID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return translatePgError(err, opDelete)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}
