package database

import (
	"errors"
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"regbot/models"
)

// ErrSessionNotFound is returned when an operation references a session id
// that was never created.
var ErrSessionNotFound = errors.New("session not found")

// Open opens (or creates) the SQLite chat-history database and migrates the
// session schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&models.ChatSession{}, &models.ChatMessage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate chat schema: %w", err)
	}
	return db, nil
}

// SessionStore is the durable mapping from session id to its ordered turns.
// Every mutation is a single transaction; it is the only mutable shared
// resource on the request path.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Ensure creates the session row if it does not exist yet. Sessions are
// created lazily on the first message that references an unseen id.
func (s *SessionStore) Ensure(sessionID string) error {
	var session models.ChatSession
	err := s.db.First(&session, "id = ?", sessionID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up session %s: %w", sessionID, err)
	}
	if err := s.db.Create(&models.ChatSession{ID: sessionID}).Error; err != nil {
		return fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}
	log.Printf("STORE: Created new session %s", sessionID)
	return nil
}

// LastMessages returns up to n most recent turns of a session in
// chronological order: rows are read newest-first and then reversed, so the
// caller always sees oldest-first regardless of total history size.
func (s *SessionStore) LastMessages(sessionID string, n int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(n).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read history for session %s: %w", sessionID, err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// AppendTurns appends the user turn and its paired assistant turn in one
// transaction. Either both are committed or neither is; a half-written pair
// must never become visible to history reads.
func (s *SessionStore) AppendTurns(sessionID, userText, assistantText string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		userMsg := models.ChatMessage{SessionID: sessionID, Role: models.RoleUser, Content: userText}
		if err := tx.Create(&userMsg).Error; err != nil {
			return fmt.Errorf("failed to append user turn: %w", err)
		}
		assistantMsg := models.ChatMessage{SessionID: sessionID, Role: models.RoleAssistant, Content: assistantText}
		if err := tx.Create(&assistantMsg).Error; err != nil {
			return fmt.Errorf("failed to append assistant turn: %w", err)
		}
		return nil
	})
}

// Delete removes a session and all of its turns. Returns ErrSessionNotFound
// for an id that was never created.
func (s *SessionStore) Delete(sessionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var session models.ChatSession
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to look up session %s: %w", sessionID, err)
		}
		// Cascade is deleted explicitly so the behavior does not depend on the
		// sqlite foreign_keys pragma.
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages of session %s: %w", sessionID, err)
		}
		if err := tx.Delete(&session).Error; err != nil {
			return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
		}
		return nil
	})
}

// CountMessages reports how many turns a session currently holds.
func (s *SessionStore) CountMessages(sessionID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count messages for session %s: %w", sessionID, err)
	}
	return count, nil
}
