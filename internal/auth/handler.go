package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/petrolia/termlab/internal/httpx"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Login accepts form-url-encoded username/password (OAuth2 password-grant
// field names) and returns {access_token, token_type, refresh_token}.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid form payload")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		httpx.WriteDetail(w, http.StatusBadRequest, "username and password required")
		return
	}
	pair, err := h.svc.Login(r.Context(), username, password)
	if err != nil {
		h.logger.Debugw("login failed", "username", username, "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r)
	if p == nil {
		httpx.WriteDetail(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	if err := h.svc.Logout(r.Context(), p.UserID); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller's identity summary.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r)
	if p == nil {
		httpx.WriteDetail(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":              p.UserID,
		"role":                 p.Role,
		"company_id":           p.CompanyID,
		"terminal_ids":         p.TerminalIDs,
		"must_change_password": p.MustChangePassword,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r)
	if p == nil {
		httpx.WriteDetail(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.svc.ChangePassword(r.Context(), p.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
