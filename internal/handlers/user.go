package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/socialcore/internal/models"
	"github.com/HammerMeetNail/socialcore/internal/services"
)

type UserHandler struct {
	userService services.UserServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SetStatusRequest struct {
	Status models.UserStatus `json:"status"`
}

type UserResponse struct {
	User *models.User `json:"user"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.userService.Create(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, UserResponse{User: user})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// SetStatus is an operator route. Suspension ends the user's sessions.
func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user ID", services.CodeValidation)
		return
	}

	var req SetStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.userService.SetStatus(r.Context(), userID, req.Status)
	if err != nil {
		writeServiceError(w, r, "set_status", err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user})
}
