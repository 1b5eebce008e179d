package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ogurasousui/personnel-core/internal/core/session"
	"github.com/ogurasousui/personnel-core/internal/platform/config"
)

// ErrInvalidToken は署名・期限・発行者の検証に失敗した場合に返却されます。
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims はセッショントークンのクレームです。Subject にアカウント ID を保持します。
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Signer は HS256 のセッショントークンを発行・検証します。
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner は設定から Signer を生成します。署名が無効な場合は nil を返します。
func NewSigner(cfg config.AuthConfig) *Signer {
	if !cfg.SigningEnabled() {
		return nil
	}
	return &Signer{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Issue は Principal に対するトークンと有効期限を返します。
func (s *Signer) Issue(p session.Principal) (string, time.Time, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := Claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.AccountID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expires, nil
}

// Subject はトークンを検証し、アカウント参照 (subject) を返します。
// ロールは返さず、呼び出し側がセッション解決でアカウントを再読込します。
func (s *Signer) Subject(raw string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
