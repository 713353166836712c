package service

import (
	"errors"
	"time"

	"mathdrill/internal/security"
)

// learnerSubject is the token subject for the single local learner
const learnerSubject = "learner"

var ErrInvalidCredentials = errors.New("invalid passcode")

// AuthService exchanges the learner passcode for a signed bearer token.
// With no passcode hash configured, authentication is disabled.
type AuthService struct {
	passcodeHash string
	secret       []byte
	ttl          time.Duration
	csrf         *security.CSRFGenerator
	now          func() time.Time
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token     string    `json:"token"`
	CSRFToken string    `json:"csrfToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewAuthService creates a new auth service
func NewAuthService(passcodeHash, jwtSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		passcodeHash: passcodeHash,
		secret:       []byte(jwtSecret),
		ttl:          ttl,
		csrf:         security.NewCSRFGenerator(jwtSecret),
		now:          time.Now,
	}
}

// Enabled reports whether requests must carry a token
func (s *AuthService) Enabled() bool {
	return s.passcodeHash != ""
}

// Login checks the passcode and issues a token
func (s *AuthService) Login(passcode string) (*LoginResult, error) {
	if !s.Enabled() {
		return nil, errors.New("authentication is disabled")
	}
	if passcode == "" || !security.CheckPasscode(passcode, s.passcodeHash) {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := security.IssueToken(s.secret, learnerSubject, s.ttl, s.now())
	if err != nil {
		return nil, err
	}
	csrfToken, err := s.csrf.GenerateToken(claims.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, CSRFToken: csrfToken, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ValidateToken verifies a bearer token and returns its claims
func (s *AuthService) ValidateToken(token string) (*security.Claims, error) {
	return security.ParseToken(s.secret, token)
}

// ValidateCSRF checks the CSRF token bound to a validated auth token
func (s *AuthService) ValidateCSRF(claims *security.Claims, csrfToken string) bool {
	return s.csrf.ValidateToken(claims.ID, csrfToken)
}
