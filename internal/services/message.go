package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"

	"github.com/HammerMeetNail/socialcore/internal/cache"
	"github.com/HammerMeetNail/socialcore/internal/models"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// FriendChecker answers whether two users are friends.
type FriendChecker interface {
	IsFriend(ctx context.Context, userID, otherUserID int64) (bool, error)
}

// MessageService delivers direct messages between friends and tracks which
// ones the recipient has read.
type MessageService struct {
	db      DBConn
	friends FriendChecker
	users   UserLookup
	cache   *cache.Cache
	now     func() time.Time
}

func NewMessageService(db DBConn, friends FriendChecker, users UserLookup, c *cache.Cache) *MessageService {
	return &MessageService{
		db:      db,
		friends: friends,
		users:   users,
		cache:   c,
		now:     time.Now,
	}
}

const messageColumns = `id, from_user_id, to_user_id, content, is_read, timestamp`

func scanMessage(row Row) (*models.Message, error) {
	m := &models.Message{}
	if err := row.Scan(&m.ID, &m.FromUserID, &m.ToUserID, &m.Content, &m.IsRead, &m.Timestamp); err != nil {
		return nil, err
	}
	return m, nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// checkSend validates content and requires an accepted friendship. The
// friendship is read from the repository so a just-accepted request is
// honoured immediately.
func (s *MessageService) checkSend(ctx context.Context, fromUserID, toUserID int64, content string) error {
	if err := validateContent(content); err != nil {
		return err
	}
	ok, err := s.friends.IsFriend(ctx, fromUserID, toUserID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFriends
	}
	return nil
}

func (s *MessageService) Send(ctx context.Context, fromUserID, toUserID int64, content string) (*models.Message, error) {
	if err := s.checkSend(ctx, fromUserID, toUserID, content); err != nil {
		return nil, err
	}

	msg, err := scanMessage(s.db.QueryRow(ctx,
		`INSERT INTO messages (from_user_id, to_user_id, content, is_read, timestamp)
		 VALUES ($1, $2, $3, false, NOW())
		 RETURNING `+messageColumns,
		fromUserID, toUserID, content,
	))
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	evict(ctx, s.cache, cache.RegionUnreadCount, toUserID)
	return msg, nil
}

func (s *MessageService) SendByUsername(ctx context.Context, fromUserID int64, username, content string) (*models.Message, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, fromUserID, user.ID, content)
}

// SendEphemeral runs every check Send does and returns the message it would
// have stored, without writing anything.
func (s *MessageService) SendEphemeral(ctx context.Context, fromUserID, toUserID int64, content string) (*models.Message, error) {
	if err := s.checkSend(ctx, fromUserID, toUserID, content); err != nil {
		return nil, err
	}
	return &models.Message{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Content:    content,
		Timestamp:  s.now().UTC(),
	}, nil
}

// History returns the most recent messages exchanged by the two users,
// ordered oldest to newest.
func (s *MessageService) History(ctx context.Context, userID, counterpartyID int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+messageColumns+`
		 FROM messages
		 WHERE (from_user_id = $1 AND to_user_id = $2)
		    OR (from_user_id = $2 AND to_user_id = $1)
		 ORDER BY timestamp DESC, id DESC
		 LIMIT $3`,
		userID, counterpartyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return cached(ctx, s.cache, cache.RegionUnreadCount, userID, func(ctx context.Context) (int64, error) {
		var count int64
		err := s.db.QueryRow(ctx,
			"SELECT COUNT(*) FROM messages WHERE to_user_id = $1 AND NOT is_read",
			userID,
		).Scan(&count)
		if err != nil {
			return 0, fmt.Errorf("counting unread messages: %w", err)
		}
		return count, nil
	})
}

// MarkRead marks one message read. Only its recipient may do so; marking an
// already read message again succeeds.
func (s *MessageService) MarkRead(ctx context.Context, messageID, actingUserID int64) error {
	var recipientID int64
	err := s.db.QueryRow(ctx, "SELECT to_user_id FROM messages WHERE id = $1", messageID).Scan(&recipientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("getting message: %w", err)
	}
	if recipientID != actingUserID {
		return ErrNotMessageRecipient
	}

	_, err = s.db.Exec(ctx,
		"UPDATE messages SET is_read = true WHERE id = $1 AND NOT is_read",
		messageID,
	)
	if err != nil {
		return fmt.Errorf("marking message read: %w", err)
	}

	evict(ctx, s.cache, cache.RegionUnreadCount, actingUserID)
	return nil
}

// MarkConversationRead marks every unread message from counterpartyID to
// userID as read and returns how many changed.
func (s *MessageService) MarkConversationRead(ctx context.Context, userID, counterpartyID int64) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE messages SET is_read = true
		 WHERE to_user_id = $1 AND from_user_id = $2 AND NOT is_read`,
		userID, counterpartyID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking conversation read: %w", err)
	}

	n := tag.RowsAffected()
	if n > 0 {
		evict(ctx, s.cache, cache.RegionUnreadCount, userID)
	}
	return n, nil
}
