package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()

	token, claims, err := IssueToken(secret, "learner", time.Hour, now)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if claims.ID == "" {
		t.Error("issued claims have no ID")
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if parsed.Subject != "learner" || parsed.ID != claims.ID {
		t.Errorf("parsed claims = %+v, want subject learner and ID %s", parsed, claims.ID)
	}
}

func TestParseTokenRejects(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()

	valid, _, err := IssueToken(secret, "learner", time.Hour, now)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	expired, _, err := IssueToken(secret, "learner", time.Hour, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "learner"}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "learner",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"wrong secret", []byte("other-secret"), valid},
		{"expired", secret, expired},
		{"missing expiry", secret, noExpiry},
		{"unexpected algorithm", secret, hs512},
		{"garbage", secret, "not.a.token"},
		{"empty", secret, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
