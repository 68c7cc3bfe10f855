package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/HammerMeetNail/socialcore/internal/logging"
	"github.com/HammerMeetNail/socialcore/internal/services"
	"github.com/HammerMeetNail/socialcore/internal/transcript"
)

type TranscriptStore interface {
	CreateConversation(ctx context.Context, userID int64, title string) (*transcript.Conversation, error)
	Get(ctx context.Context, id, userID int64) (*transcript.Conversation, error)
	Append(ctx context.Context, conversationID, userID int64, role transcript.Role, content string) (*transcript.Entry, error)
	History(ctx context.Context, conversationID, userID int64, limit int) ([]transcript.Entry, error)
	Delete(ctx context.Context, id, userID int64) error
}

type ConversationHandler struct {
	store TranscriptStore
}

func NewConversationHandler(store TranscriptStore) *ConversationHandler {
	return &ConversationHandler{store: store}
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type AppendEntryRequest struct {
	Role    transcript.Role `json:"role"`
	Content string          `json:"content"`
}

type ConversationResponse struct {
	Conversation *transcript.Conversation `json:"conversation"`
}

type EntryResponse struct {
	Entry *transcript.Entry `json:"entry"`
}

type EntryListResponse struct {
	Entries []transcript.Entry `json:"entries"`
}

func writeTranscriptError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, transcript.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found", services.CodeNotFound)
	case errors.Is(err, transcript.ErrEmptyContent), errors.Is(err, transcript.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, err.Error(), services.CodeValidation)
	default:
		logging.Error("Transcript request failed", map[string]interface{}{
			"op":    op,
			"path":  r.URL.Path,
			"error": err,
		})
		writeError(w, http.StatusInternalServerError, "Internal server error", services.CodeInternal)
	}
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	// The body is optional; an empty one yields the default title.
	var req CreateConversationRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidBody(w)
		return
	}

	c, err := h.store.CreateConversation(r.Context(), userID, req.Title)
	if err != nil {
		writeTranscriptError(w, r, "create_conversation", err)
		return
	}
	writeJSON(w, http.StatusCreated, ConversationResponse{Conversation: c})
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID", services.CodeValidation)
		return
	}

	c, err := h.store.Get(r.Context(), id, userID)
	if err != nil {
		writeTranscriptError(w, r, "get_conversation", err)
		return
	}
	writeJSON(w, http.StatusOK, ConversationResponse{Conversation: c})
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID", services.CodeValidation)
		return
	}

	if err := h.store.Delete(r.Context(), id, userID); err != nil {
		writeTranscriptError(w, r, "delete_conversation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Append(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID", services.CodeValidation)
		return
	}

	var req AppendEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	entry, err := h.store.Append(r.Context(), id, userID, req.Role, req.Content)
	if err != nil {
		writeTranscriptError(w, r, "append_entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, EntryResponse{Entry: entry})
}

func (h *ConversationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid conversation ID", services.CodeValidation)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", services.CodeValidation)
			return
		}
		limit = n
	}

	entries, err := h.store.History(r.Context(), id, userID, limit)
	if err != nil {
		writeTranscriptError(w, r, "conversation_history", err)
		return
	}
	writeJSON(w, http.StatusOK, EntryListResponse{Entries: nonNil(entries)})
}
