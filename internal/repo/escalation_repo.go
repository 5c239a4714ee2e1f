// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Escalation
// model (questions the assistant could not answer).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// CreateEscalation inserts a new escalation row.
func CreateEscalation(ctx context.Context, db *gorm.DB, e *domain.Escalation) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(e).Error
}

// LatestEscalationForSession returns the most recent escalation of a session,
// or ErrNotFound. The contact step enriches exactly this row.
func LatestEscalationForSession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Escalation, error) {
	var e domain.Escalation
	err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// AttachEscalationContact writes phone/email onto an escalation that does not
// yet carry contact info. The contact_provided guard keeps the enrichment a
// one-shot operation; a second attempt returns ErrNotFound.
func AttachEscalationContact(ctx context.Context, db *gorm.DB, id, phone, email string) error {
	res := db.WithContext(ctx).
		Model(&domain.Escalation{}).
		Where("id = ? AND contact_provided = ?", id, false).
		Updates(map[string]any{
			"phone":            phone,
			"email":            email,
			"contact_provided": true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EscalationFilter narrows ListEscalationsPage. Zero values mean "no filter".
type EscalationFilter struct {
	GuidebookID     string
	PropertyRelated *bool
	ContactProvided *bool
}

// CountEscalations returns the number of escalations matching the filter.
func CountEscalations(ctx context.Context, db *gorm.DB, f EscalationFilter) (int64, error) {
	var total int64
	err := escalationQuery(db.WithContext(ctx), f).Count(&total).Error
	return total, err
}

// ListEscalationsPage returns a page of escalations matching the filter, most
// recent first.
func ListEscalationsPage(ctx context.Context, db *gorm.DB, f EscalationFilter, offset, limit int) ([]domain.Escalation, error) {
	var out []domain.Escalation
	err := escalationQuery(db.WithContext(ctx), f).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func escalationQuery(db *gorm.DB, f EscalationFilter) *gorm.DB {
	q := db.Model(&domain.Escalation{})
	if f.GuidebookID != "" {
		q = q.Where("guidebook_id = ?", f.GuidebookID)
	}
	if f.PropertyRelated != nil {
		q = q.Where("property_related = ?", *f.PropertyRelated)
	}
	if f.ContactProvided != nil {
		q = q.Where("contact_provided = ?", *f.ContactProvided)
	}
	return q
}
