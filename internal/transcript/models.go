// Package transcript stores assistant conversation transcripts. They are
// owned by a user and kept apart from direct messages between friends.
package transcript

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

type Conversation struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_conversations_user,priority:1" json:"user_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index:idx_conversations_user,priority:2" json:"updated_at"`
}

// TableName implements the GORM tabler interface.
func (Conversation) TableName() string { return "conversations" }

type Entry struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	ConversationID int64     `gorm:"not null;index:idx_conversation_entries_order,priority:1" json:"conversation_id"`
	Role           Role      `gorm:"size:20;not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"not null;index:idx_conversation_entries_order,priority:2" json:"created_at"`
}

// TableName implements the GORM tabler interface.
func (Entry) TableName() string { return "conversation_entries" }
