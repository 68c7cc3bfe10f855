package services

import (
	"context"

	"github.com/HammerMeetNail/socialcore/internal/models"
)

// UserServiceInterface defines the contract for user operations.
type UserServiceInterface interface {
	Create(ctx context.Context, username, password string) (*models.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	SetStatus(ctx context.Context, id int64, status models.UserStatus) (*models.User, error)
}

// SessionServiceInterface defines the contract for the token session store.
type SessionServiceInterface interface {
	CreateSession(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, error)
	DeleteSession(ctx context.Context, token string) error
	InvalidateAll(ctx context.Context, userID int64) bool
	IsOnline(ctx context.Context, userID int64) bool
}

// FriendServiceInterface defines the contract for friend request and friend
// graph operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error)
	SendRequestByUsername(ctx context.Context, fromUserID int64, username string) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error)
	RejectRequest(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error)
	ListPendingRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	ListSentRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	ListFriends(ctx context.Context, userID int64) ([]models.FriendWithUser, error)
	IsFriend(ctx context.Context, userID, otherUserID int64) (bool, error)
}

// MessageServiceInterface defines the contract for messaging operations.
type MessageServiceInterface interface {
	Send(ctx context.Context, fromUserID, toUserID int64, content string) (*models.Message, error)
	SendByUsername(ctx context.Context, fromUserID int64, username, content string) (*models.Message, error)
	SendEphemeral(ctx context.Context, fromUserID, toUserID int64, content string) (*models.Message, error)
	History(ctx context.Context, userID, counterpartyID int64, limit int) ([]models.Message, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, messageID, actingUserID int64) error
	MarkConversationRead(ctx context.Context, userID, counterpartyID int64) (int64, error)
}

var (
	_ UserServiceInterface    = (*UserService)(nil)
	_ SessionServiceInterface = (*SessionService)(nil)
	_ FriendServiceInterface  = (*FriendService)(nil)
	_ MessageServiceInterface = (*MessageService)(nil)
	_ UserLookup              = (*UserService)(nil)
	_ FriendChecker           = (*FriendService)(nil)
	_ SessionInvalidator      = (*SessionService)(nil)
)
