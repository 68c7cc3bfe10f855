package models

import "time"

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed proposal. Only pending requests change state;
// accepted and rejected are terminal.
type FriendRequest struct {
	ID         int64               `json:"id"`
	FromUserID int64               `json:"from_user_id"`
	ToUserID   int64               `json:"to_user_id"`
	Status     FriendRequestStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func (r FriendRequest) IsPending() bool {
	return r.Status == FriendRequestPending
}

// Friend is one direction of an accepted friendship. Every friendship has a
// mirrored row with UserID and FriendID swapped.
type Friend struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FriendID  int64     `json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

type FriendWithUser struct {
	Friend
	FriendUsername string `json:"friend_username"`
}

type FriendRequestWithUser struct {
	FriendRequest
	FromUsername string `json:"from_username"`
	ToUsername   string `json:"to_username"`
}
