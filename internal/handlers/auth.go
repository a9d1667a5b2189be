package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/fitcoach-backend/internal/apperror"
	"github.com/AnshRaj112/fitcoach-backend/internal/services"
)

const oauthStateCookie = "oauth_state"

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"device_id,omitempty"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	DeviceID     string `json:"device_id,omitempty"`
}

type deviceTokenRequest struct {
	Token string `json:"token"`
}

// AuthHandler implements account and session endpoints.
type AuthHandler struct {
	Auth  AuthService
	OAuth OAuthURLs
	// SecureCookies marks the OAuth state cookie Secure, set in production.
	SecureCookies bool
}

// Register handles POST /api/auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	res, err := h.Auth.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		DeviceID: deviceID(r, req.DeviceID),
	})
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, ok("user", res.User).with("tokens", res.Tokens))
}

// Login handles POST /api/auth/login. identifier is a username or an email.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		respondError(r.Context(), w, apperror.BadRequest("identifier and password are required"))
		return
	}
	res, err := h.Auth.Login(r.Context(), req.Identifier, req.Password, deviceID(r, req.DeviceID))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("user", res.User).with("tokens", res.Tokens))
}

// Refresh handles POST /api/auth/refresh.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		respondError(r.Context(), w, apperror.Invalid("refresh_token", "Refresh token is required"))
		return
	}
	res, err := h.Auth.Refresh(r.Context(), req.RefreshToken, deviceID(r, req.DeviceID))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("tokens", res.Tokens))
}

// Logout handles POST /api/auth/logout and drops the refresh token of the device.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Auth.Logout(r.Context(), userID, deviceID(r, "")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Logged out"))
}

// Me handles GET /api/auth/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	user, err := h.Auth.Me(r.Context(), userID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("user", user))
}

// UpdateDeviceToken handles PUT /api/auth/device-token.
func (h AuthHandler) UpdateDeviceToken(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	var req deviceTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Auth.UpdateDeviceToken(r.Context(), userID, req.Token); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Device token updated"))
}

// Deactivate handles DELETE /api/auth/me.
func (h AuthHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	if err := h.Auth.Deactivate(r.Context(), userID); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, message("Account deactivated"))
}

// GoogleURL handles GET /api/auth/google. The state is echoed back through a
// short-lived cookie and checked on callback.
func (h AuthHandler) GoogleURL(w http.ResponseWriter, r *http.Request) {
	if h.OAuth == nil {
		respondError(r.Context(), w, apperror.BadRequest("google sign-in is not configured"))
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/google",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(r.Context(), w, http.StatusOK, ok("url", h.OAuth.AuthCodeURL(state)))
}

// GoogleCallback handles GET /api/auth/google/callback?code=&state=.
func (h AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		respondError(r.Context(), w, apperror.Unauthorized("google sign-in was cancelled"))
		return
	}
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		respondError(r.Context(), w, apperror.BadRequest("invalid oauth state"))
		return
	}
	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		respondError(r.Context(), w, apperror.Invalid("code", "Authorization code is required"))
		return
	}
	// state is single use
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/api/auth/google", MaxAge: -1})

	res, err := h.Auth.OAuthLogin(r.Context(), code, deviceID(r, q.Get("device_id")))
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, ok("user", res.User).with("tokens", res.Tokens))
}
