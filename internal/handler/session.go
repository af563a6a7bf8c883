package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/englishhub/englishhub/internal/server/middleware"
	"github.com/englishhub/englishhub/internal/service"
)

// SessionHandler exposes the admin session facade over HTTP.
type SessionHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *service.SessionService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionHandler{sessions: sessions, logger: logger, now: time.Now}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"session_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
	Username  string `json:"username"`
}

// Login exchanges admin credentials for a session token.
// POST /api/v1/admin/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "login", err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, sess, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, "login", err)
		return
	}

	expiresIn := int64(sess.ExpiresAt.Sub(h.now()).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: expiresIn,
		Username:  sess.Username,
	})
}

type sessionStatus struct {
	IsAdmin bool `json:"is_admin"`
}

// Status reports whether the bearer token, if any, is a live session.
// GET /api/v1/admin/session
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionStatus{
		IsAdmin: h.sessions.IsAdmin(r.Context(), middleware.BearerToken(r)),
	})
}

// Logout revokes the bearer token. It succeeds without one.
// DELETE /api/v1/admin/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		if err := h.sessions.Logout(r.Context(), token); err != nil {
			writeServiceError(w, r, h.logger, "logout", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type passwordChangeRequest struct {
	Username        string `json:"username"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword rotates the session admin's password.
// PUT /api/v1/admin/password
func (h *SessionHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req passwordChangeRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, r, h.logger, "change password", err)
		return
	}
	if req.Username != "" && req.Username != sess.Username {
		writeError(w, http.StatusForbidden, "A session may only change its own password")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "current_password and new_password are required")
		return
	}

	ok, err := h.sessions.ChangePassword(r.Context(), sess, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, h.logger, "change password", err)
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
