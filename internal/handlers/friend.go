package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/HammerMeetNail/socialcore/internal/models"
	"github.com/HammerMeetNail/socialcore/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
}

func NewFriendHandler(friendService services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// SendFriendRequestRequest addresses the recipient by id or by username.
// The id wins when both are set.
type SendFriendRequestRequest struct {
	ToUserID int64  `json:"to_user_id"`
	Username string `json:"username"`
}

type FriendRequestResponse struct {
	Request *models.FriendRequest `json:"request"`
}

type FriendRequestListResponse struct {
	Requests []models.FriendRequestWithUser `json:"requests"`
}

type FriendListResponse struct {
	Friends []models.FriendWithUser `json:"friends"`
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SendFriendRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	var (
		fr  *models.FriendRequest
		err error
	)
	switch {
	case req.ToUserID > 0:
		fr, err = h.friendService.SendRequest(r.Context(), userID, req.ToUserID)
	case strings.TrimSpace(req.Username) != "":
		fr, err = h.friendService.SendRequestByUsername(r.Context(), userID, req.Username)
	default:
		writeError(w, http.StatusBadRequest, "to_user_id or username is required", services.CodeValidation)
		return
	}
	if err != nil {
		writeServiceError(w, r, "send_friend_request", err)
		return
	}
	writeJSON(w, http.StatusCreated, FriendRequestResponse{Request: fr})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "accept_friend_request", h.friendService.AcceptRequest)
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "reject_friend_request", h.friendService.RejectRequest)
}

type transitionFunc func(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error)

func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, op string, transition transitionFunc) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requestID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request ID", services.CodeValidation)
		return
	}

	fr, err := transition(r.Context(), requestID, userID)
	if err != nil {
		writeServiceError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, FriendRequestResponse{Request: fr})
}

func (h *FriendHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requests, err := h.friendService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "list_pending_requests", err)
		return
	}
	writeJSON(w, http.StatusOK, FriendRequestListResponse{Requests: nonNil(requests)})
}

func (h *FriendHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	requests, err := h.friendService.ListSentRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "list_sent_requests", err)
		return
	}
	writeJSON(w, http.StatusOK, FriendRequestListResponse{Requests: nonNil(requests)})
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "list_friends", err)
		return
	}
	writeJSON(w, http.StatusOK, FriendListResponse{Friends: nonNil(friends)})
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
