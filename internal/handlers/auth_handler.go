package handlers

import (
	"net/http"

	"mathdrill/internal/logger"
	"mathdrill/internal/security"
	"mathdrill/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	log         *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

type loginRequest struct {
	Passcode string `json:"passcode"`
}

// Login checks the passcode, sets the auth cookie and returns the token pair
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.authService.Enabled() {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "authentication is disabled"})
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	result, err := h.authService.Login(req.Passcode)
	if err != nil {
		h.log.Warn("Login failed", "ip", security.GetClientIP(r))
		writeServiceError(w, h.log, err)
		return
	}

	http.SetCookie(w, security.CreateAuthCookie(r, result.Token, result.ExpiresAt))
	writeJSON(w, http.StatusOK, result)
}

// Logout clears the auth cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}
