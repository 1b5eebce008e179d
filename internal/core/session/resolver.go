package session

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/fault"
)

var (
	// ErrMissingToken は識別トークンが付与されていない場合に返却されます。
	ErrMissingToken = fault.New(fault.Unauthenticated, "no identity token")
	// ErrInvalidSession はトークンに対応するアカウントが存在しない場合に返却されます。
	ErrInvalidSession = fault.New(fault.Unauthenticated, "invalid session")
)

// Principal は 1 リクエスト分の解決済み呼び出し元です。
type Principal struct {
	AccountID int64
	Role      account.Role
}

// Privileged は管理者ロールかを返します。
func (p Principal) Privileged() bool {
	return p.Role == account.RolePrivileged
}

// AccountFinder はアカウント取得の抽象です。
type AccountFinder interface {
	FindByID(ctx context.Context, id int64) (*account.Account, error)
}

// Resolver は識別トークンから Principal を解決します。副作用はありません。
type Resolver struct {
	accounts AccountFinder
}

// NewResolver は Resolver を生成します。
func NewResolver(accounts AccountFinder) *Resolver {
	return &Resolver{accounts: accounts}
}

// Resolve は数値のアカウント参照を Principal に変換します。
func (r *Resolver) Resolve(ctx context.Context, token string) (Principal, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Principal{}, ErrMissingToken
	}

	id, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || id <= 0 {
		return Principal{}, ErrInvalidSession
	}

	acc, err := r.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return Principal{}, ErrInvalidSession
		}
		return Principal{}, fault.Wrap(fault.Internal, err, "resolve session")
	}

	if !acc.Active {
		return Principal{}, account.ErrInactive
	}

	return Principal{AccountID: acc.ID, Role: acc.Role}, nil
}
