// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatMessage
// model (the append-only message log).
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// CreateChatMessage inserts a new message row. Rows are immutable once
// written; the log only grows.
func CreateChatMessage(db *gorm.DB, m *domain.ChatMessage) (*domain.ChatMessage, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()
	return m, db.Create(m).Error
}

// ListSessionMessages returns messages for a session ordered deterministically
// (CreatedAt ASC, ID ASC).
func ListSessionMessages(db *gorm.DB, sessionID string, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	q := db.Where("session_id = ?", sessionID).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListRecentSessionMessages returns the last n messages of a session in
// chronological order, for prompt assembly.
func ListRecentSessionMessages(db *gorm.DB, sessionID string, n int) ([]domain.ChatMessage, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []domain.ChatMessage
	err := db.
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	// Reverse back to chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountSessionMessages returns the number of messages in a session.
func CountSessionMessages(db *gorm.DB, sessionID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM chat_messages WHERE session_id = ?", sessionID).Scan(&total).Error
	return total, err
}

// ListSessionMessagesPage returns a paginated slice ordered (CreatedAt ASC, ID ASC).
func ListSessionMessagesPage(db *gorm.DB, sessionID string, offset, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetChatMessage fetches a message by ID.
func GetChatMessage(db *gorm.DB, id string) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
