package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/HammerMeetNail/socialcore/internal/models"
	"github.com/HammerMeetNail/socialcore/internal/services"
)

type MessageHandler struct {
	messageService services.MessageServiceInterface
	userService    services.UserServiceInterface
}

func NewMessageHandler(messageService services.MessageServiceInterface, userService services.UserServiceInterface) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		userService:    userService,
	}
}

// SendMessageRequest addresses the recipient by id or username. DryRun runs
// every check without persisting the message.
type SendMessageRequest struct {
	ToUserID int64  `json:"to_user_id"`
	Username string `json:"username"`
	Content  string `json:"content"`
	DryRun   bool   `json:"dry_run"`
}

type MessageEnvelope struct {
	Message   *models.Message `json:"message"`
	Persisted bool            `json:"persisted"`
}

type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type MarkedReadResponse struct {
	Marked int64 `json:"marked"`
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	toUserID := req.ToUserID
	username := strings.TrimSpace(req.Username)
	if toUserID <= 0 && username == "" {
		writeError(w, http.StatusBadRequest, "to_user_id or username is required", services.CodeValidation)
		return
	}

	var (
		msg *models.Message
		err error
	)
	switch {
	case req.DryRun:
		if toUserID <= 0 {
			recipient, lookupErr := h.userService.GetByUsername(r.Context(), username)
			if lookupErr != nil {
				writeServiceError(w, r, "send_message", lookupErr)
				return
			}
			toUserID = recipient.ID
		}
		msg, err = h.messageService.SendEphemeral(r.Context(), userID, toUserID, req.Content)
	case toUserID > 0:
		msg, err = h.messageService.Send(r.Context(), userID, toUserID, req.Content)
	default:
		msg, err = h.messageService.SendByUsername(r.Context(), userID, username, req.Content)
	}
	if err != nil {
		writeServiceError(w, r, "send_message", err)
		return
	}

	status := http.StatusCreated
	if req.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, MessageEnvelope{Message: msg, Persisted: !req.DryRun})
}

func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	counterpartyID, ok := pathID(r, "counterpartyId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid counterparty ID", services.CodeValidation)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", services.CodeValidation)
			return
		}
		limit = n
	}

	messages, err := h.messageService.History(r.Context(), userID, counterpartyID, limit)
	if err != nil {
		writeServiceError(w, r, "message_history", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageListResponse{Messages: nonNil(messages)})
}

func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	count, err := h.messageService.UnreadCount(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "unread_count", err)
		return
	}
	writeJSON(w, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	messageID, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid message ID", services.CodeValidation)
		return
	}

	if err := h.messageService.MarkRead(r.Context(), messageID, userID); err != nil {
		writeServiceError(w, r, "mark_read", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Message marked read"})
}

func (h *MessageHandler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	counterpartyID, ok := pathID(r, "counterpartyId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid counterparty ID", services.CodeValidation)
		return
	}

	marked, err := h.messageService.MarkConversationRead(r.Context(), userID, counterpartyID)
	if err != nil {
		writeServiceError(w, r, "mark_conversation_read", err)
		return
	}
	writeJSON(w, http.StatusOK, MarkedReadResponse{Marked: marked})
}
