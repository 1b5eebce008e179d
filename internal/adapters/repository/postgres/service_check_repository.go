package postgres

import (
	"context"

	"github.com/ogurasousui/personnel-core/internal/platform/healthpoll"
	pgdb "github.com/ogurasousui/personnel-core/internal/platform/db/postgres"
)

// ServiceCheckRepository はヘルスポーラーの結果を service_checks に追記します。
type ServiceCheckRepository struct {
	pool pgdb.Queryer
}

// NewServiceCheckRepository は ServiceCheckRepository を生成します。
func NewServiceCheckRepository(pool pgdb.Queryer) *ServiceCheckRepository {
	return &ServiceCheckRepository{pool: pool}
}

// Record は 1 回分の確認結果を保存します。
func (r *ServiceCheckRepository) Record(ctx context.Context, res healthpoll.Result) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `
        INSERT INTO service_checks (service, url, status, db_ok, response_time_ms, checked_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, res.Service, res.URL, string(res.Status), res.DBOK, res.ResponseTime.Milliseconds(), res.CheckedAt)
	if err != nil {
		return translatePgError(err, opWrite)
	}
	return nil
}
