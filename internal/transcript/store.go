package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
)

const (
	DefaultTitle   = "New conversation"
	maxTitleLength = 200
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyContent         = errors.New("entry content cannot be empty")
	ErrInvalidRole          = errors.New("role must be user, assistant or system")
)

// Store persists conversations and their entries through GORM.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// CreateConversation starts an empty conversation for userID. A blank title
// becomes DefaultTitle and long titles are clipped.
func (s *Store) CreateConversation(ctx context.Context, userID int64, title string) (*Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength])
	}

	now := s.now().UTC()
	c := &Conversation{UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return c, nil
}

// Get returns the conversation if it belongs to userID.
func (s *Store) Get(ctx context.Context, id, userID int64) (*Conversation, error) {
	return getOwned(s.db.WithContext(ctx), id, userID)
}

func getOwned(db *gorm.DB, id, userID int64) (*Conversation, error) {
	var c Conversation
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return &c, nil
}

// Append adds an entry and bumps the conversation's updated_at in one
// transaction.
func (s *Store) Append(ctx context.Context, conversationID, userID int64, role Role, content string) (*Entry, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	var entry *Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getOwned(tx, conversationID, userID); err != nil {
			return err
		}

		now := s.now().UTC()
		entry = &Entry{ConversationID: conversationID, Role: role, Content: content, CreatedAt: now}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("creating entry: %w", err)
		}
		if err := tx.Model(&Conversation{}).Where("id = ?", conversationID).Update("updated_at", now).Error; err != nil {
			return fmt.Errorf("touching conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// History returns entries oldest first. A positive limit caps the result.
func (s *Store) History(ctx context.Context, conversationID, userID int64, limit int) ([]Entry, error) {
	db := s.db.WithContext(ctx)
	if _, err := getOwned(db, conversationID, userID); err != nil {
		return nil, err
	}

	out := []Entry{}
	q := db.Where("conversation_id = ?", conversationID).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return out, nil
}

// Delete removes the conversation and all of its entries.
func (s *Store) Delete(ctx context.Context, id, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getOwned(tx, id, userID); err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&Entry{}).Error; err != nil {
			return fmt.Errorf("deleting entries: %w", err)
		}
		if err := tx.Delete(&Conversation{}, id).Error; err != nil {
			return fmt.Errorf("deleting conversation: %w", err)
		}
		return nil
	})
}
