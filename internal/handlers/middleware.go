package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"mathdrill/internal/logger"
	"mathdrill/internal/security"
	"mathdrill/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ClaimsContextKey ContextKey = "claims"

// CSRFHeader carries the CSRF token on cookie-authenticated writes
const CSRFHeader = "X-CSRF-Token"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	auth    *service.AuthService
	limiter *security.RateLimiter
	log     *logger.Logger
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(auth *service.AuthService, limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{auth: auth, limiter: limiter, log: log}
}

// RequireAuth rejects requests without a valid token once a passcode is configured.
// Tokens come from the Authorization header or the auth cookie; cookie requests
// that change state must also send the CSRF header.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.auth.Enabled() {
			next(w, r)
			return
		}

		token, fromCookie := bearerToken(r), false
		if token == "" {
			cookie, err := r.Cookie(security.AuthCookieName)
			if err == nil {
				token, fromCookie = cookie.Value, true
			}
		}
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrAuthRequired})
			return
		}

		claims, err := m.auth.ValidateToken(token)
		if err != nil {
			if fromCookie {
				http.SetCookie(w, security.CreateDeleteCookie(r))
			}
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrAuthRequired})
			return
		}

		if fromCookie && !safeMethod(r.Method) && !m.auth.ValidateCSRF(claims, r.Header.Get(CSRFHeader)) {
			m.log.Warn("CSRF token rejected", "path", r.URL.Path, "ip", security.GetClientIP(r))
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "invalid CSRF token"})
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests, try again later"})
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

// GetClaimsFromContext returns the token claims of an authenticated request
func GetClaimsFromContext(ctx context.Context) *security.Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	if !ok {
		return nil
	}
	return claims
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Flush keeps the event stream working behind the logger
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
