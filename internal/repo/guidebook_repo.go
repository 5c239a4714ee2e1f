// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Guidebook
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a guidebook is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateGuidebook inserts a fully populated Guidebook row. The caller owns
// ID, slug, and QR generation; CreatedAt is forced to UTC here.
func CreateGuidebook(ctx context.Context, db *gorm.DB, g *domain.Guidebook) error {
	g.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(g).Error
}

// GetGuidebook fetches a single guidebook by ID, or ErrNotFound.
func GetGuidebook(ctx context.Context, db *gorm.DB, id string) (*domain.Guidebook, error) {
	var g domain.Guidebook
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGuidebookBySlug fetches a single guidebook by its chat slug, or ErrNotFound.
func GetGuidebookBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Guidebook, error) {
	var g domain.Guidebook
	if err := db.WithContext(ctx).Where("chat_slug = ?", slug).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// SlugExists reports whether a slug is already taken by a guidebook other
// than excludeID (pass "" when creating).
func SlugExists(ctx context.Context, db *gorm.DB, slug, excludeID string) (bool, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.Guidebook{}).Where("chat_slug = ?", slug)
	if strings.TrimSpace(excludeID) != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// ListGuidebooks returns all guidebooks ordered by creation time descending.
func ListGuidebooks(ctx context.Context, db *gorm.DB) ([]domain.Guidebook, error) {
	var out []domain.Guidebook
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// CountGuidebooks returns the total number of guidebooks.
func CountGuidebooks(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Guidebook{}).Count(&total).Error
	return total, err
}

// ListGuidebooksPage returns a paginated slice ordered by creation time
// descending. The caller computes offset and limit.
func ListGuidebooksPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Guidebook, error) {
	var out []domain.Guidebook
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateGuidebook overwrites the mutable columns of a guidebook. If no rows
// are affected (row missing), it returns ErrNotFound.
func UpdateGuidebook(ctx context.Context, db *gorm.DB, g *domain.Guidebook) error {
	res := db.WithContext(ctx).
		Model(&domain.Guidebook{}).
		Where("id = ?", g.ID).
		Updates(map[string]any{
			"title":        g.Title,
			"body":         g.Body,
			"original_url": g.OriginalURL,
			"chat_slug":    g.ChatSlug,
			"description":  g.Description,
			"qr_code_png":  g.QRCodePNG,
			"updated_by":   g.UpdatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
