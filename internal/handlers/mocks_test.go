package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/HammerMeetNail/socialcore/internal/models"
	"github.com/HammerMeetNail/socialcore/internal/transcript"
)

var errUnexpectedCall = errors.New("unexpected call")

type mockUserService struct {
	CreateFunc        func(ctx context.Context, username, password string) (*models.User, error)
	ExistsFunc        func(ctx context.Context, id int64) (bool, error)
	GetByIDFunc       func(ctx context.Context, id int64) (*models.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.User, error)
	AuthenticateFunc  func(ctx context.Context, username, password string) (*models.User, error)
	SetStatusFunc     func(ctx context.Context, id int64, status models.UserStatus) (*models.User, error)
}

func (m *mockUserService) Create(ctx context.Context, username, password string) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, username, password)
	}
	return nil, errUnexpectedCall
}

func (m *mockUserService) Exists(ctx context.Context, id int64) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, id)
	}
	return false, errUnexpectedCall
}

func (m *mockUserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, errUnexpectedCall
}

func (m *mockUserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, errUnexpectedCall
}

func (m *mockUserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, username, password)
	}
	return nil, errUnexpectedCall
}

func (m *mockUserService) SetStatus(ctx context.Context, id int64, status models.UserStatus) (*models.User, error) {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, id, status)
	}
	return nil, errUnexpectedCall
}

type mockSessionService struct {
	CreateSessionFunc func(ctx context.Context, userID int64) (string, error)
	ResolveFunc       func(ctx context.Context, token string) (int64, error)
	DeleteSessionFunc func(ctx context.Context, token string) error
	InvalidateAllFunc func(ctx context.Context, userID int64) bool
	IsOnlineFunc      func(ctx context.Context, userID int64) bool
}

func (m *mockSessionService) CreateSession(ctx context.Context, userID int64) (string, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, userID)
	}
	return "", errUnexpectedCall
}

func (m *mockSessionService) Resolve(ctx context.Context, token string) (int64, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, token)
	}
	return 0, errUnexpectedCall
}

func (m *mockSessionService) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, token)
	}
	return errUnexpectedCall
}

func (m *mockSessionService) InvalidateAll(ctx context.Context, userID int64) bool {
	if m.InvalidateAllFunc != nil {
		return m.InvalidateAllFunc(ctx, userID)
	}
	return false
}

func (m *mockSessionService) IsOnline(ctx context.Context, userID int64) bool {
	if m.IsOnlineFunc != nil {
		return m.IsOnlineFunc(ctx, userID)
	}
	return false
}

type mockFriendService struct {
	SendRequestFunc           func(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error)
	SendRequestByUsernameFunc func(ctx context.Context, fromUserID int64, username string) (*models.FriendRequest, error)
	AcceptRequestFunc         func(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error)
	RejectRequestFunc         func(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error)
	ListPendingRequestsFunc   func(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	ListSentRequestsFunc      func(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error)
	ListFriendsFunc           func(ctx context.Context, userID int64) ([]models.FriendWithUser, error)
	IsFriendFunc              func(ctx context.Context, userID, otherUserID int64) (bool, error)
}

func (m *mockFriendService) SendRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, fromUserID, toUserID)
	}
	return nil, errUnexpectedCall
}

func (m *mockFriendService) SendRequestByUsername(ctx context.Context, fromUserID int64, username string) (*models.FriendRequest, error) {
	if m.SendRequestByUsernameFunc != nil {
		return m.SendRequestByUsernameFunc(ctx, fromUserID, username)
	}
	return nil, errUnexpectedCall
}

func (m *mockFriendService) AcceptRequest(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, requestID, actingUserID)
	}
	return nil, errUnexpectedCall
}

func (m *mockFriendService) RejectRequest(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error) {
	if m.RejectRequestFunc != nil {
		return m.RejectRequestFunc(ctx, requestID, actingUserID)
	}
	return nil, errUnexpectedCall
}

func (m *mockFriendService) ListPendingRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	if m.ListPendingRequestsFunc != nil {
		return m.ListPendingRequestsFunc(ctx, userID)
	}
	return nil, errUnexpectedCall
}

func (m *mockFriendService) ListSentRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	if m.ListSentRequestsFunc != nil {
		return m.ListSentRequestsFunc(ctx, userID)
	}
	return nil, errUnexpectedCall
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID int64) ([]models.FriendWithUser, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return nil, errUnexpectedCall
}

func (m *mockFriendService) IsFriend(ctx context.Context, userID, otherUserID int64) (bool, error) {
	if m.IsFriendFunc != nil {
		return m.IsFriendFunc(ctx, userID, otherUserID)
	}
	return false, errUnexpectedCall
}

type mockMessageService struct {
	SendFunc                 func(ctx context.Context, fromUserID, toUserID int64, content string) (*models.Message, error)
	SendByUsernameFunc       func(ctx context.Context, fromUserID int64, username, content string) (*models.Message, error)
	SendEphemeralFunc        func(ctx context.Context, fromUserID, toUserID int64, content string) (*models.Message, error)
	HistoryFunc              func(ctx context.Context, userID, counterpartyID int64, limit int) ([]models.Message, error)
	UnreadCountFunc          func(ctx context.Context, userID int64) (int64, error)
	MarkReadFunc             func(ctx context.Context, messageID, actingUserID int64) error
	MarkConversationReadFunc func(ctx context.Context, userID, counterpartyID int64) (int64, error)
}

func (m *mockMessageService) Send(ctx context.Context, fromUserID, toUserID int64, content string) (*models.Message, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, fromUserID, toUserID, content)
	}
	return nil, errUnexpectedCall
}

func (m *mockMessageService) SendByUsername(ctx context.Context, fromUserID int64, username, content string) (*models.Message, error) {
	if m.SendByUsernameFunc != nil {
		return m.SendByUsernameFunc(ctx, fromUserID, username, content)
	}
	return nil, errUnexpectedCall
}

func (m *mockMessageService) SendEphemeral(ctx context.Context, fromUserID, toUserID int64, content string) (*models.Message, error) {
	if m.SendEphemeralFunc != nil {
		return m.SendEphemeralFunc(ctx, fromUserID, toUserID, content)
	}
	return nil, errUnexpectedCall
}

func (m *mockMessageService) History(ctx context.Context, userID, counterpartyID int64, limit int) ([]models.Message, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, counterpartyID, limit)
	}
	return nil, errUnexpectedCall
}

func (m *mockMessageService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if m.UnreadCountFunc != nil {
		return m.UnreadCountFunc(ctx, userID)
	}
	return 0, errUnexpectedCall
}

func (m *mockMessageService) MarkRead(ctx context.Context, messageID, actingUserID int64) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, messageID, actingUserID)
	}
	return errUnexpectedCall
}

func (m *mockMessageService) MarkConversationRead(ctx context.Context, userID, counterpartyID int64) (int64, error) {
	if m.MarkConversationReadFunc != nil {
		return m.MarkConversationReadFunc(ctx, userID, counterpartyID)
	}
	return 0, errUnexpectedCall
}

type mockTranscriptStore struct {
	CreateConversationFunc func(ctx context.Context, userID int64, title string) (*transcript.Conversation, error)
	GetFunc                func(ctx context.Context, id, userID int64) (*transcript.Conversation, error)
	AppendFunc             func(ctx context.Context, conversationID, userID int64, role transcript.Role, content string) (*transcript.Entry, error)
	HistoryFunc            func(ctx context.Context, conversationID, userID int64, limit int) ([]transcript.Entry, error)
	DeleteFunc             func(ctx context.Context, id, userID int64) error
}

func (m *mockTranscriptStore) CreateConversation(ctx context.Context, userID int64, title string) (*transcript.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, userID, title)
	}
	return nil, errUnexpectedCall
}

func (m *mockTranscriptStore) Get(ctx context.Context, id, userID int64) (*transcript.Conversation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id, userID)
	}
	return nil, errUnexpectedCall
}

func (m *mockTranscriptStore) Append(ctx context.Context, conversationID, userID int64, role transcript.Role, content string) (*transcript.Entry, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, conversationID, userID, role, content)
	}
	return nil, errUnexpectedCall
}

func (m *mockTranscriptStore) History(ctx context.Context, conversationID, userID int64, limit int) ([]transcript.Entry, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, conversationID, userID, limit)
	}
	return nil, errUnexpectedCall
}

func (m *mockTranscriptStore) Delete(ctx context.Context, id, userID int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, userID)
	}
	return errUnexpectedCall
}

// withUser attaches an authenticated user to req.
func withUser(req *http.Request, id int64) *http.Request {
	user := &models.User{ID: id, Username: "user", Status: models.UserStatusActive}
	return req.WithContext(SetUserInContext(req.Context(), user))
}
