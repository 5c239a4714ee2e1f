// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer and for the
// staff analytics dashboard. Each function is context-aware and safe to call
// from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// SessionsStats returns aggregate metadata for the sessions matching a
// filter: the total number of rows and the maximum StartedAt timestamp among
// those rows.
//
// When no sessions match, the returned count is 0 and maxStartedAt is nil.
func SessionsStats(ctx context.Context, db *gorm.DB, f SessionFilter) (count int64, maxStartedAt *time.Time, err error) {
	q := sessionQuery(db.WithContext(ctx), f)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest started_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		StartedAt time.Time
	}
	if err = q.Select("started_at").Order("started_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.StartedAt, nil
}

// SessionMessagesStats returns aggregate metadata for messages within a given
// session: the total number of rows and the maximum CreatedAt timestamp among
// those rows. Messages are immutable so CreatedAt is the freshness signal.
//
// When the session has no messages, the returned count is 0 and maxCreatedAt
// is nil.
func SessionMessagesStats(ctx context.Context, db *gorm.DB, sessionID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatMessage{}).Where("session_id = ?", sessionID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// GuidebookUsage is one row of the staff analytics dashboard: per-guidebook
// session, message, token, and escalation totals.
type GuidebookUsage struct {
	GuidebookID    string `json:"guidebook_id"`
	Title          string `json:"title"`
	Sessions       int64  `json:"sessions"`
	ActiveSessions int64  `json:"active_sessions"`
	Messages       int64  `json:"messages"`
	InputTokens    int64  `json:"input_tokens"`
	OutputTokens   int64  `json:"output_tokens"`
	Escalations    int64  `json:"escalations"`
}

// UsageByGuidebook aggregates session, token, and escalation counts per
// guidebook. Guidebooks with no traffic still appear with zero counts.
func UsageByGuidebook(ctx context.Context, db *gorm.DB) ([]GuidebookUsage, error) {
	var out []GuidebookUsage
	err := db.WithContext(ctx).Raw(`
		SELECT
			g.id                                       AS guidebook_id,
			g.title                                    AS title,
			COUNT(DISTINCT s.id)                       AS sessions,
			COUNT(DISTINCT CASE WHEN s.active THEN s.id END) AS active_sessions,
			COALESCE(SUM(s.message_count), 0)          AS messages,
			COALESCE(SUM(s.input_tokens), 0)           AS input_tokens,
			COALESCE(SUM(s.output_tokens), 0)          AS output_tokens,
			(SELECT COUNT(*) FROM escalations e WHERE e.guidebook_id = g.id) AS escalations
		FROM guidebooks g
		LEFT JOIN chat_sessions s ON s.guidebook_id = g.id
		WHERE g.deleted_at IS NULL
		GROUP BY g.id, g.title
		ORDER BY sessions DESC, g.title ASC
	`).Scan(&out).Error
	return out, err
}

// OverallUsage is the console-wide totals banner.
type OverallUsage struct {
	Guidebooks   int64 `json:"guidebooks"`
	Properties   int64 `json:"properties"`
	Sessions     int64 `json:"sessions"`
	Messages     int64 `json:"messages"`
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	Escalations  int64 `json:"escalations"`
	Unanswered   int64 `json:"unanswered"`
}

// Totals computes the console-wide counters in one round of scalar queries.
func Totals(ctx context.Context, db *gorm.DB) (OverallUsage, error) {
	var t OverallUsage
	d := db.WithContext(ctx)
	if err := d.Model(&domain.Guidebook{}).Count(&t.Guidebooks).Error; err != nil {
		return t, err
	}
	if err := d.Model(&domain.Property{}).Count(&t.Properties).Error; err != nil {
		return t, err
	}
	if err := d.Model(&domain.ChatSession{}).Count(&t.Sessions).Error; err != nil {
		return t, err
	}
	if err := d.Model(&domain.ChatMessage{}).Count(&t.Messages).Error; err != nil {
		return t, err
	}
	var tok struct {
		InTok  int64
		OutTok int64
	}
	if err := d.Model(&domain.ChatSession{}).
		Select("COALESCE(SUM(input_tokens),0) AS in_tok, COALESCE(SUM(output_tokens),0) AS out_tok").
		Scan(&tok).Error; err != nil {
		return t, err
	}
	t.InputTokens, t.OutputTokens = tok.InTok, tok.OutTok
	if err := d.Model(&domain.Escalation{}).Count(&t.Escalations).Error; err != nil {
		return t, err
	}
	if err := d.Model(&domain.ChatMessage{}).
		Where("role = ? AND was_answered = ?", domain.RoleAssistant, false).
		Count(&t.Unanswered).Error; err != nil {
		return t, err
	}
	return t, nil
}
