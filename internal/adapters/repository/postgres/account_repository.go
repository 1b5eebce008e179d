package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	pgdb "github.com/ogurasousui/personnel-core/internal/platform/db/postgres"
)

// AccountRepository は PostgreSQL を利用したアカウント参照の実装です。
type AccountRepository struct {
	pool pgdb.Queryer
}

// NewAccountRepository は AccountRepository を生成します。
func NewAccountRepository(pool pgdb.Queryer) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// FindByID は ID でアカウントを取得します。
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, external_id, email, password_hash, role, active, created_at
          FROM accounts
         WHERE id = $1
    `, id)

	found, err := scanAccount(row)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindByIdentifier は外部 ID またはメールアドレス (大文字小文字を区別しない) で取得します。
func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*account.Account, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, external_id, email, password_hash, role, active, created_at
          FROM accounts
         WHERE external_id = $1 OR lower(email) = $2
         ORDER BY id
         LIMIT 1
    `, identifier, strings.ToLower(identifier))

	found, err := scanAccount(row)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// EmployeeIDForAccount はアカウントに紐づく従業員 ID を返します。
func (r *AccountRepository) EmployeeIDForAccount(ctx context.Context, accountID int64) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var id int64
	err := exec.QueryRow(ctx, `SELECT id FROM employees WHERE account_id = $1`, accountID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, account.ErrNoEmployee
		}
		return 0, translatePgError(err, opRead)
	}
	return id, nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		id         int64
		externalID string
		email      string
		hash       string
		role       string
		active     bool
		createdAt  time.Time
	)

	if err := row.Scan(&id, &externalID, &email, &hash, &role, &active, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound
		}
		return nil, translatePgError(err, opRead)
	}

	return &account.Account{
		ID:           id,
		ExternalID:   externalID,
		Email:        email,
		PasswordHash: hash,
		Role:         account.Role(role),
		Active:       active,
		CreatedAt:    createdAt,
	}, nil
}
