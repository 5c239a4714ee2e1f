// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatSession
// model (the per-visit session ledger).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// CreateSession inserts a new active session in the idle state.
func CreateSession(ctx context.Context, db *gorm.DB, guidebookID, visitorID string) (*domain.ChatSession, error) {
	s := &domain.ChatSession{
		ID:          uuid.NewString(),
		GuidebookID: guidebookID,
		VisitorID:   visitorID,
		State:       domain.SessionStateIdle,
		Active:      true,
		StartedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession fetches a session by ID, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSessionState moves a session to the given state.
// Returns ErrNotFound when the session does not exist.
func UpdateSessionState(ctx context.Context, db *gorm.DB, id, state string) error {
	res := db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("id = ?", id).
		Update("state", state)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BumpSessionCounters adds one turn's worth of usage to the ledger. Counters
// only grow; gorm.Expr keeps the increment atomic at the statement level.
func BumpSessionCounters(db *gorm.DB, id string, messages int, inTokens, outTokens int64) error {
	return db.Model(&domain.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"message_count": gorm.Expr("message_count + ?", messages),
			"input_tokens":  gorm.Expr("input_tokens + ?", inTokens),
			"output_tokens": gorm.Expr("output_tokens + ?", outTokens),
		}).Error
}

// MarkContactOnFile flags the session as having visitor contact info.
func MarkContactOnFile(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("id = ?", id).
		Update("contact_on_file", true).Error
}

// EndSession closes a session. EndedAt is written only when still null so the
// timestamp is set at most once even on repeated end calls.
func EndSession(ctx context.Context, db *gorm.DB, id string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.ChatSession{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{
			"active":   false,
			"state":    domain.SessionStateEnded,
			"ended_at": gorm.Expr("COALESCE(ended_at, ?)", now),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SessionFilter narrows ListSessionsPage. Zero values mean "no filter".
type SessionFilter struct {
	GuidebookID string
	ActiveOnly  bool
	EndedOnly   bool
}

// CountSessions returns the number of sessions matching the filter.
func CountSessions(ctx context.Context, db *gorm.DB, f SessionFilter) (int64, error) {
	var total int64
	err := sessionQuery(db.WithContext(ctx), f).Count(&total).Error
	return total, err
}

// ListSessionsPage returns a page of sessions matching the filter, most
// recent first.
func ListSessionsPage(ctx context.Context, db *gorm.DB, f SessionFilter, offset, limit int) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	err := sessionQuery(db.WithContext(ctx), f).
		Order("started_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func sessionQuery(db *gorm.DB, f SessionFilter) *gorm.DB {
	q := db.Model(&domain.ChatSession{})
	if f.GuidebookID != "" {
		q = q.Where("guidebook_id = ?", f.GuidebookID)
	}
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if f.EndedOnly {
		q = q.Where("active = ?", false)
	}
	return q
}
