// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for properties,
// property managers, staff users, and property↔guidebook mappings.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// CreateProperty inserts a new Property row.
func CreateProperty(ctx context.Context, db *gorm.DB, p *domain.Property) error {
	p.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(p).Error
}

// GetProperty fetches a property by ID, or ErrNotFound.
func GetProperty(ctx context.Context, db *gorm.DB, id string) (*domain.Property, error) {
	var p domain.Property
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProperties returns all properties ordered by creation time descending.
func ListProperties(ctx context.Context, db *gorm.DB) ([]domain.Property, error) {
	var out []domain.Property
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// UpdateProperty updates a property's mutable columns. Returns ErrNotFound
// when no row matched.
func UpdateProperty(ctx context.Context, db *gorm.DB, p *domain.Property) error {
	res := db.WithContext(ctx).
		Model(&domain.Property{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"address":    p.Address,
			"manager_id": p.ManagerID,
			"updated_by": p.UpdatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateManager inserts a new PropertyManager row.
func CreateManager(ctx context.Context, db *gorm.DB, m *domain.PropertyManager) error {
	m.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(m).Error
}

// GetManager fetches a manager by ID, or ErrNotFound.
func GetManager(ctx context.Context, db *gorm.DB, id string) (*domain.PropertyManager, error) {
	var m domain.PropertyManager
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListManagers returns active managers ordered by name.
func ListManagers(ctx context.Context, db *gorm.DB) ([]domain.PropertyManager, error) {
	var out []domain.PropertyManager
	err := db.WithContext(ctx).Where("active = ?", true).Order("name asc").Find(&out).Error
	return out, err
}

// GetStaffByUsername fetches a staff login by username (admins) or email
// (managers use their email as username), or ErrNotFound.
func GetStaffByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.StaffUser, error) {
	var u domain.StaffUser
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateStaff inserts a new staff login.
func CreateStaff(ctx context.Context, db *gorm.DB, u *domain.StaffUser) error {
	u.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(u).Error
}

// GetMappingForProperty returns the mapping row for a property, or ErrNotFound.
func GetMappingForProperty(ctx context.Context, db *gorm.DB, propertyID string) (*domain.PropertyMapping, error) {
	var m domain.PropertyMapping
	if err := db.WithContext(ctx).Where("property_id = ?", propertyID).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMappings returns all mappings ordered by creation time descending.
func ListMappings(ctx context.Context, db *gorm.DB) ([]domain.PropertyMapping, error) {
	var out []domain.PropertyMapping
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// ReplaceMapping atomically replaces the guidebook mapped to a property.
// Delete and insert run in one transaction so a property never transiently
// holds zero-or-two mappings under concurrent readers.
func ReplaceMapping(ctx context.Context, db *gorm.DB, propertyID, guidebookID, staff string) (*domain.PropertyMapping, error) {
	m := &domain.PropertyMapping{
		ID:          uuid.NewString(),
		PropertyID:  propertyID,
		GuidebookID: guidebookID,
		CreatedBy:   staff,
		ModifiedBy:  staff,
		CreatedAt:   time.Now().UTC(),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", propertyID).Delete(&domain.PropertyMapping{}).Error; err != nil {
			return err
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
