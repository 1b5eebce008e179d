package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/personnel-core/internal/core/records"
	pgdb "github.com/ogurasousui/personnel-core/internal/platform/db/postgres"
)

// RecordRepository はスキーマ駆動の汎用レコード永続化の実装です。
type RecordRepository struct {
	pool pgdb.Queryer
}

// NewRecordRepository は RecordRepository を生成します。
func NewRecordRepository(pool pgdb.Queryer) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// List は条件に一致する行を返します。
func (r *RecordRepository) List(ctx context.Context, schema records.Schema, q records.Query) ([]records.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	sql, args := buildList(schema, q)

	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, translatePgError(err, opRead)
	}
	defer rows.Close()

	out := make([]records.Record, 0, q.Limit)
	for rows.Next() {
		rec, err := scanRecord(rows, schema)
		if err != nil {
			return nil, translatePgError(err, opRead)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, opRead)
	}
	return out, nil
}

// Get は ID で 1 行を取得します。
func (r *RecordRepository) Get(ctx context.Context, schema records.Schema, id int64) (records.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rec, err := scanRecord(exec.QueryRow(ctx, buildGet(schema), id), schema)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return records.Record{}, records.ErrRecordNotFound
		}
		return records.Record{}, translatePgError(err, opRead)
	}
	return rec, nil
}

// Owner は行の所有従業員 ID を返します。
func (r *RecordRepository) Owner(ctx context.Context, schema records.Schema, id int64) (*int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var owner *int64
	if err := exec.QueryRow(ctx, buildOwner(schema), id).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, records.ErrRecordNotFound
		}
		return nil, translatePgError(err, opRead)
	}
	if !schema.Owned() {
		return nil, nil
	}
	return owner, nil
}

// Insert は行を追加し、採番された ID を返します。
func (r *RecordRepository) Insert(ctx context.Context, schema records.Schema, values []records.Assignment) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	sql, args := buildInsert(schema, values)

	var id int64
	if err := exec.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return 0, translatePgError(err, opWrite)
	}
	return id, nil
}

// Update は指定カラムのみを更新します。
func (r *RecordRepository) Update(ctx context.Context, schema records.Schema, id int64, values []records.Assignment) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	sql, args := buildUpdate(schema, id, values)

	tag, err := exec.Exec(ctx, sql, args...)
	if err != nil {
		return translatePgError(err, opWrite)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrRecordNotFound
	}
	return nil
}

// Delete は行を削除します。
func (r *RecordRepository) Delete(ctx context.Context, schema records.Schema, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, buildDelete(schema.Table), id)
	if err != nil {
		return translatePgError(err, opDelete)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrRecordNotFound
	}
	return nil
}

// ClearExclusive は同一所有者の他行の排他フラグを下ろします。
func (r *RecordRepository) ClearExclusive(ctx context.Context, schema records.Schema, ownerID, keepID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, buildClearExclusive(schema), ownerID, keepID); err != nil {
		return translatePgError(err, opWrite)
	}
	return nil
}

func scanRecord(row pgx.Row, schema records.Schema) (records.Record, error) {
	fields := schema.Readable()

	var id int64
	dest := make([]any, 0, len(fields)+1)
	dest = append(dest, &id)
	for _, f := range fields {
		dest = append(dest, scanTarget(f.Type))
	}

	if err := row.Scan(dest...); err != nil {
		return records.Record{}, err
	}

	names := make([]string, len(fields))
	values := make([]any, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		values[i] = scannedValue(dest[i+1])
	}
	return records.NewRecord(id, names, values), nil
}

func scanTarget(t records.FieldType) any {
	switch t {
	case records.TypeDate:
		return new(*time.Time)
	case records.TypeInt:
		return new(*int64)
	case records.TypeDecimal:
		return new(decimal.NullDecimal)
	case records.TypeBool:
		return new(*bool)
	default:
		return new(*string)
	}
}

func scannedValue(dest any) any {
	switch v := dest.(type) {
	case **time.Time:
		if *v == nil {
			return nil
		}
		return **v
	case **int64:
		if *v == nil {
			return nil
		}
		return **v
	case *decimal.NullDecimal:
		if !v.Valid {
			return nil
		}
		return v.Decimal
	case **bool:
		if *v == nil {
			return nil
		}
		return **v
	case **string:
		if *v == nil {
			return nil
		}
		return **v
	default:
		return nil
	}
}
