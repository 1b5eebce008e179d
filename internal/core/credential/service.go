package credential

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/fault"
	"github.com/ogurasousui/personnel-core/internal/core/session"
)

// ErrInvalidCredentials は識別子または秘密値が一致しない場合に返却されます。
var ErrInvalidCredentials = fault.New(fault.Unauthenticated, "invalid credentials")

// AccountLookup は識別子でアカウントを取得します。
type AccountLookup interface {
	FindByIdentifier(ctx context.Context, identifier string) (*account.Account, error)
}

// BcryptHasher は bcrypt による Hasher 実装です。
type BcryptHasher struct {
	Cost int
}

// Hash は秘密値をハッシュ化します。
func (h BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verifier はログイン時の資格情報検証を行います。
type Verifier struct {
	accounts AccountLookup
}

// NewVerifier は Verifier を生成します。
func NewVerifier(accounts AccountLookup) *Verifier {
	return &Verifier{accounts: accounts}
}

// VerifyCredentials は外部 ID またはメールアドレスと秘密値を照合します。
func (v *Verifier) VerifyCredentials(ctx context.Context, identifier, secret string) (session.Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return session.Principal{}, ErrInvalidCredentials
	}

	acc, err := v.accounts.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return session.Principal{}, ErrInvalidCredentials
		}
		return session.Principal{}, fault.Wrap(fault.Internal, err, "lookup account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(secret)); err != nil {
		return session.Principal{}, ErrInvalidCredentials
	}

	if !acc.Active {
		return session.Principal{}, account.ErrInactive
	}

	return session.Principal{AccountID: acc.ID, Role: acc.Role}, nil
}
