package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ogurasousui/personnel-core/internal/core/account"
	"github.com/ogurasousui/personnel-core/internal/core/session"
	"github.com/ogurasousui/personnel-core/internal/platform/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s := NewSigner(config.AuthConfig{JWTSecret: testSecret, Issuer: "personnel-core", TokenTTL: time.Hour})
	if s == nil {
		t.Fatal("expected signer")
	}
	return s
}

func TestSigner_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t)
	token, expires, err := s.Issue(session.Principal{AccountID: 42, Role: account.RoleStandard})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiry, got %v", expires)
	}

	sub, err := s.Subject(token)
	if err != nil {
		t.Fatalf("Subject returned error: %v", err)
	}
	if sub != "42" {
		t.Fatalf("expected subject 42, got %q", sub)
	}
}

func TestSigner_Rejects(t *testing.T) {
	t.Parallel()

	s := newTestSigner(t)
	token, _, err := s.Issue(session.Principal{AccountID: 1, Role: account.RolePrivileged})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	other := NewSigner(config.AuthConfig{JWTSecret: strings.Repeat("z", 32), Issuer: "personnel-core", TokenTTL: time.Hour})

	expired := newTestSigner(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(session.Principal{AccountID: 1, Role: account.RolePrivileged})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1", Issuer: "personnel-core"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}

	cases := map[string]struct {
		signer *Signer
		token  string
	}{
		"wrong secret": {signer: other, token: token},
		"expired":      {signer: s, token: old},
		"alg none":     {signer: s, token: none},
		"garbage":      {signer: s, token: "not-a-token"},
	}

	for name, tc := range cases {
		if _, err := tc.signer.Subject(tc.token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestNewSigner_Disabled(t *testing.T) {
	t.Parallel()

	if NewSigner(config.AuthConfig{}) != nil {
		t.Fatal("expected nil signer without secret")
	}
}
