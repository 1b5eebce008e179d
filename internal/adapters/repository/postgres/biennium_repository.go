package postgres

import (
	"context"
	"time"

	"github.com/ogurasousui/personnel-core/internal/core/biennium"
	pgdb "github.com/ogurasousui/personnel-core/internal/platform/db/postgres"
)

const employeeNameExpr = `trim(concat_ws(' ', e.given_names, e.paternal_surname, e.maternal_surname))`

// BienniumRepository は二年手当の参照を行う実装です。
type BienniumRepository struct {
	pool pgdb.Queryer
}

// NewBienniumRepository は BienniumRepository を生成します。
func NewBienniumRepository(pool pgdb.Queryer) *BienniumRepository {
	return &BienniumRepository{pool: pool}
}

// DueBetween は在職者の期間のうち期日が [from, to] にあるものを返します。
func (r *BienniumRepository) DueBetween(ctx context.Context, from, to time.Time) ([]biennium.Due, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT b.employee_id, `+employeeNameExpr+`, e.hire_date,
               COALESCE(b.fulfillment_date, b.period_end) AS due_date
          FROM biennia b
          JOIN employees e ON e.id = b.employee_id
         WHERE e.active
           AND COALESCE(b.fulfillment_date, b.period_end) BETWEEN $1 AND $2
         ORDER BY due_date, b.employee_id
    `, from, to)
	if err != nil {
		return nil, translatePgError(err, opRead)
	}
	defer rows.Close()

	var out []biennium.Due
	for rows.Next() {
		var d biennium.Due
		if err := rows.Scan(&d.EmployeeID, &d.Name, &d.HireDate, &d.DueDate); err != nil {
			return nil, translatePgError(err, opRead)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, opRead)
	}
	return out, nil
}

// StartedSince は開始日が since 以降の期間を新しい順に返します。
func (r *BienniumRepository) StartedSince(ctx context.Context, since time.Time) ([]biennium.Period, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT b.id, b.employee_id, `+employeeNameExpr+`,
               b.period_start, b.period_end, b.fulfilled, b.fulfillment_date
          FROM biennia b
          JOIN employees e ON e.id = b.employee_id
         WHERE b.period_start >= $1
         ORDER BY b.period_start DESC, b.id DESC
    `, since)
	if err != nil {
		return nil, translatePgError(err, opRead)
	}
	defer rows.Close()

	var out []biennium.Period
	for rows.Next() {
		var p biennium.Period
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.Name, &p.PeriodStart, &p.PeriodEnd, &p.Fulfilled, &p.FulfillmentDate); err != nil {
			return nil, translatePgError(err, opRead)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, opRead)
	}
	return out, nil
}

// ActiveEmployees は入職日を持つ在職者を返します。
func (r *BienniumRepository) ActiveEmployees(ctx context.Context) ([]biennium.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT e.id, `+employeeNameExpr+`, e.hire_date
          FROM employees e
         WHERE e.active
         ORDER BY e.id
    `)
	if err != nil {
		return nil, translatePgError(err, opRead)
	}
	defer rows.Close()

	var out []biennium.Employee
	for rows.Next() {
		var e biennium.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.HireDate); err != nil {
			return nil, translatePgError(err, opRead)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err, opRead)
	}
	return out, nil
}
