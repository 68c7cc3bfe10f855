package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/socialcore/internal/logging"
	"github.com/HammerMeetNail/socialcore/internal/models"
	"github.com/HammerMeetNail/socialcore/internal/services"
)

type SessionHandler struct {
	userService    services.UserServiceInterface
	sessionService services.SessionServiceInterface
	secure         bool
}

func NewSessionHandler(userService services.UserServiceInterface, sessionService services.SessionServiceInterface, secure bool) *SessionHandler {
	return &SessionHandler{
		userService:    userService,
		sessionService: sessionService,
		secure:         secure,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type InvalidateSessionsRequest struct {
	UserID int64 `json:"user_id"`
}

type InvalidateSessionsResponse struct {
	UserID      int64 `json:"user_id"`
	Invalidated bool  `json:"invalidated"`
}

type OnlineResponse struct {
	UserID int64 `json:"user_id"`
	Online bool  `json:"online"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required", services.CodeValidation)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password", "unauthorized")
		return
	}
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	token, err := h.sessionService.CreateSession(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "create_session", err)
		return
	}

	h.setSessionCookie(w, token)
	logging.Info("User logged in", map[string]interface{}{"user_id": user.ID})
	writeJSON(w, http.StatusCreated, LoginResponse{Token: token, User: user})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := GetTokenFromContext(r.Context())
	if token == "" {
		writeUnauthorized(w)
		return
	}

	if err := h.sessionService.DeleteSession(r.Context(), token); err != nil {
		writeServiceError(w, r, "logout", err)
		return
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

// InvalidateAll ends every session of a user. It is an operator route.
func (h *SessionHandler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	var req InvalidateSessionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "user_id is required", services.CodeValidation)
		return
	}

	if !h.sessionService.InvalidateAll(r.Context(), req.UserID) {
		writeError(w, http.StatusServiceUnavailable, services.ErrUnavailable.Error(), services.CodeUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, InvalidateSessionsResponse{UserID: req.UserID, Invalidated: true})
}

func (h *SessionHandler) IsOnline(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID", services.CodeValidation)
		return
	}
	writeJSON(w, http.StatusOK, OnlineResponse{
		UserID: userID,
		Online: h.sessionService.IsOnline(r.Context(), userID),
	})
}

func (h *SessionHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *SessionHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
