package models

import "time"

// Message roles stored in the session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession is one durable conversation identity. Sessions are created
// lazily on first use and removed only by explicit delete.
type ChatSession struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Messages []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// ChatMessage is one role-tagged turn in a session's history. Rows are append
// only, never mutated or reordered.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"index" json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
