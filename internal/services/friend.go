package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/socialcore/internal/cache"
	"github.com/HammerMeetNail/socialcore/internal/models"
)

// UserLookup is the identity provider consulted before a request is created.
type UserLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// FriendService owns the friend request lifecycle and the friend graph that
// accepted requests produce.
type FriendService struct {
	db    DBConn
	users UserLookup
	cache *cache.Cache
}

func NewFriendService(db DBConn, users UserLookup, c *cache.Cache) *FriendService {
	return &FriendService{db: db, users: users, cache: c}
}

const friendRequestColumns = `id, from_user_id, to_user_id, status, created_at, updated_at`

func scanFriendRequest(row Row) (*models.FriendRequest, error) {
	req := &models.FriendRequest{}
	err := row.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *FriendService) SendRequest(ctx context.Context, fromUserID, toUserID int64) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, ErrCannotFriendSelf
	}

	exists, err := s.users.Exists(ctx, toUserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	friends, err := s.IsFriend(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	// Only the same direction counts; a pending request the other way is
	// left alone and both may be acted on independently.
	var pending bool
	err = s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE from_user_id = $1 AND to_user_id = $2 AND status = 'pending'
		)`,
		fromUserID, toUserID,
	).Scan(&pending)
	if err != nil {
		return nil, fmt.Errorf("checking pending request: %w", err)
	}
	if pending {
		return nil, ErrDuplicatePending
	}

	req, err := scanFriendRequest(s.db.QueryRow(ctx,
		`INSERT INTO friend_requests (from_user_id, to_user_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+friendRequestColumns,
		fromUserID, toUserID,
	))
	if isUniqueViolation(err) {
		return nil, ErrDuplicatePending
	}
	if err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	s.evict(ctx, cache.RegionPendingRequests, toUserID)
	return req, nil
}

func (s *FriendService) SendRequestByUsername(ctx context.Context, fromUserID int64, username string) (*models.FriendRequest, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.SendRequest(ctx, fromUserID, user.ID)
}

// AcceptRequest moves a pending request to accepted and creates both
// directions of the friendship in the same transaction.
func (s *FriendService) AcceptRequest(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error) {
	req, err := s.transition(ctx, requestID, actingUserID, models.FriendRequestAccepted)
	if err != nil {
		return nil, err
	}

	s.evict(ctx, cache.RegionFriendList, req.FromUserID, req.ToUserID)
	s.evict(ctx, cache.RegionPendingRequests, req.ToUserID)
	return req, nil
}

func (s *FriendService) RejectRequest(ctx context.Context, requestID, actingUserID int64) (*models.FriendRequest, error) {
	req, err := s.transition(ctx, requestID, actingUserID, models.FriendRequestRejected)
	if err != nil {
		return nil, err
	}

	s.evict(ctx, cache.RegionPendingRequests, req.ToUserID)
	return req, nil
}

func (s *FriendService) transition(ctx context.Context, requestID, actingUserID int64, target models.FriendRequestStatus) (*models.FriendRequest, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	req, err := scanFriendRequest(tx.QueryRow(ctx,
		`SELECT `+friendRequestColumns+` FROM friend_requests WHERE id = $1 FOR UPDATE`,
		requestID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFriendRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting friend request: %w", err)
	}

	if req.ToUserID != actingUserID {
		return nil, ErrNotRequestRecipient
	}
	if !req.IsPending() {
		return nil, ErrRequestAlreadyProcessed
	}

	tag, err := tx.Exec(ctx,
		`UPDATE friend_requests SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		requestID, target,
	)
	if err != nil {
		return nil, fmt.Errorf("updating friend request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrRequestAlreadyProcessed
	}

	if target == models.FriendRequestAccepted {
		_, err = tx.Exec(ctx,
			`INSERT INTO friends (user_id, friend_id)
			 VALUES ($1, $2), ($2, $1)
			 ON CONFLICT (user_id, friend_id) DO NOTHING`,
			req.FromUserID, req.ToUserID,
		)
		if err != nil {
			return nil, fmt.Errorf("creating friendship: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing friend request: %w", err)
	}
	committed = true

	req.Status = target
	return req, nil
}

// ListPendingRequests returns requests awaiting userID's answer, newest first.
func (s *FriendService) ListPendingRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	return cached(ctx, s.cache, cache.RegionPendingRequests, userID, func(ctx context.Context) ([]models.FriendRequestWithUser, error) {
		return s.listRequests(ctx, `fr.to_user_id = $1 AND fr.status = 'pending'`, userID)
	})
}

// ListSentRequests returns every request userID has sent, in any status.
func (s *FriendService) ListSentRequests(ctx context.Context, userID int64) ([]models.FriendRequestWithUser, error) {
	return s.listRequests(ctx, `fr.from_user_id = $1`, userID)
}

func (s *FriendService) listRequests(ctx context.Context, where string, userID int64) ([]models.FriendRequestWithUser, error) {
	rows, err := s.db.Query(ctx,
		`SELECT fr.id, fr.from_user_id, fr.to_user_id, fr.status, fr.created_at, fr.updated_at,
		        fu.username, tu.username
		 FROM friend_requests fr
		 JOIN users fu ON fu.id = fr.from_user_id
		 JOIN users tu ON tu.id = fr.to_user_id
		 WHERE `+where+`
		 ORDER BY fr.created_at DESC, fr.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing friend requests: %w", err)
	}
	defer rows.Close()

	requests := []models.FriendRequestWithUser{}
	for rows.Next() {
		var r models.FriendRequestWithUser
		if err := rows.Scan(&r.ID, &r.FromUserID, &r.ToUserID, &r.Status, &r.CreatedAt, &r.UpdatedAt, &r.FromUsername, &r.ToUsername); err != nil {
			return nil, fmt.Errorf("scanning friend request: %w", err)
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating friend requests: %w", err)
	}

	return requests, nil
}

// ListFriends returns userID's friends, most recent friendship first.
func (s *FriendService) ListFriends(ctx context.Context, userID int64) ([]models.FriendWithUser, error) {
	return cached(ctx, s.cache, cache.RegionFriendList, userID, func(ctx context.Context) ([]models.FriendWithUser, error) {
		rows, err := s.db.Query(ctx,
			`SELECT f.id, f.user_id, f.friend_id, f.created_at, u.username
			 FROM friends f
			 JOIN users u ON u.id = f.friend_id
			 WHERE f.user_id = $1
			 ORDER BY f.created_at DESC, f.id DESC`,
			userID,
		)
		if err != nil {
			return nil, fmt.Errorf("listing friends: %w", err)
		}
		defer rows.Close()

		friends := []models.FriendWithUser{}
		for rows.Next() {
			var f models.FriendWithUser
			if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.CreatedAt, &f.FriendUsername); err != nil {
				return nil, fmt.Errorf("scanning friend: %w", err)
			}
			friends = append(friends, f)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating friends: %w", err)
		}

		return friends, nil
	})
}

// IsFriend always reads the repository, never the cache.
func (s *FriendService) IsFriend(ctx context.Context, userID, otherUserID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friends WHERE user_id = $1 AND friend_id = $2)`,
		userID, otherUserID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking friendship: %w", err)
	}
	return exists, nil
}

func (s *FriendService) evict(ctx context.Context, region string, ids ...int64) {
	evict(ctx, s.cache, region, ids...)
}
