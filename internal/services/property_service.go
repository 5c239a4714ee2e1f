// Package services – PropertyService
//
// This file implements PropertyService: property CRUD, property manager
// registration (with a bcrypt-hashed console login), and the
// property↔guidebook mapping. A property carries at most one mapping;
// replacing it is atomic.
package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
	"github.com/propdesk/go-guidebook-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ManagerInput carries the fields of a manager registration.
type ManagerInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// PropertyService coordinates properties, managers, and mappings.
type PropertyService struct {
	DB *gorm.DB
}

// CreateProperty registers a property, optionally assigned to a manager.
func (s *PropertyService) CreateProperty(ctx context.Context, address string, managerID *string, staff string) (*domain.Property, error) {
	tr := otel.Tracer("services/PropertyService")
	ctx, span := tr.Start(ctx, "CreateProperty")
	defer span.End()

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyPrompt
	}
	if managerID != nil && *managerID != "" {
		if _, err := repo.GetManager(ctx, s.DB, *managerID); err != nil {
			return nil, ErrManagerNotFound
		}
	} else {
		managerID = nil
	}

	p := &domain.Property{
		ID:        uuid.NewString(),
		Address:   address,
		ManagerID: managerID,
		CreatedBy: staff,
		UpdatedBy: staff,
	}
	if err := repo.CreateProperty(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProperty fetches a property by ID.
func (s *PropertyService) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	p, err := repo.GetProperty(ctx, s.DB, id)
	if err != nil {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

// ListProperties returns all properties, newest first.
func (s *PropertyService) ListProperties(ctx context.Context) ([]domain.Property, error) {
	return repo.ListProperties(ctx, s.DB)
}

// UpdateProperty rewrites a property's address and manager assignment.
func (s *PropertyService) UpdateProperty(ctx context.Context, id, address string, managerID *string, staff string) (*domain.Property, error) {
	tr := otel.Tracer("services/PropertyService")
	ctx, span := tr.Start(ctx, "UpdateProperty",
		trace.WithAttributes(attribute.String("property.id", id)),
	)
	defer span.End()

	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrEmptyPrompt
	}
	p, err := repo.GetProperty(ctx, s.DB, id)
	if err != nil {
		return nil, ErrPropertyNotFound
	}
	if managerID != nil && *managerID != "" {
		if _, err := repo.GetManager(ctx, s.DB, *managerID); err != nil {
			return nil, ErrManagerNotFound
		}
	} else {
		managerID = nil
	}

	p.Address = address
	p.ManagerID = managerID
	p.UpdatedBy = staff
	if err := repo.UpdateProperty(ctx, s.DB, p); err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return p, nil
}

// RegisterManager creates a property manager plus a console login in one
// transaction. The manager signs in with their email; the password is stored
// as a bcrypt hash on both rows.
func (s *PropertyService) RegisterManager(ctx context.Context, in ManagerInput) (*domain.PropertyManager, error) {
	tr := otel.Tracer("services/PropertyService")
	ctx, span := tr.Start(ctx, "RegisterManager")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.Password == "" {
		return nil, ErrEmptyPrompt
	}
	if !ValidateEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	if in.Phone != "" {
		d, ok := NormalizePhone(in.Phone)
		if !ok {
			return nil, ErrInvalidPhone
		}
		in.Phone = d
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	m := &domain.PropertyManager{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Active:       true,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateManager(ctx, tx, m); err != nil {
			return err
		}
		return repo.CreateStaff(ctx, tx, &domain.StaffUser{
			ID:           uuid.NewString(),
			Username:     m.Email,
			PasswordHash: string(hash),
			Role:         "manager",
			ManagerID:    &m.ID,
		})
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return m, nil
}

// GetManager fetches a manager by ID.
func (s *PropertyService) GetManager(ctx context.Context, id string) (*domain.PropertyManager, error) {
	m, err := repo.GetManager(ctx, s.DB, id)
	if err != nil {
		return nil, ErrManagerNotFound
	}
	return m, nil
}

// ListManagers returns the active managers.
func (s *PropertyService) ListManagers(ctx context.Context) ([]domain.PropertyManager, error) {
	return repo.ListManagers(ctx, s.DB)
}

// AssignGuidebook maps a guidebook to a property, replacing any existing
// mapping atomically.
func (s *PropertyService) AssignGuidebook(ctx context.Context, propertyID, guidebookID, staff string) (*domain.PropertyMapping, error) {
	tr := otel.Tracer("services/PropertyService")
	ctx, span := tr.Start(ctx, "AssignGuidebook",
		trace.WithAttributes(
			attribute.String("property.id", propertyID),
			attribute.String("guidebook.id", guidebookID),
		),
	)
	defer span.End()

	if _, err := repo.GetProperty(ctx, s.DB, propertyID); err != nil {
		return nil, ErrPropertyNotFound
	}
	if _, err := repo.GetGuidebook(ctx, s.DB, guidebookID); err != nil {
		return nil, ErrGuidebookNotFound
	}
	return repo.ReplaceMapping(ctx, s.DB, propertyID, guidebookID, staff)
}

// GetMapping returns a property's mapping, or ErrPropertyNotFound when the
// property has no guidebook assigned.
func (s *PropertyService) GetMapping(ctx context.Context, propertyID string) (*domain.PropertyMapping, error) {
	m, err := repo.GetMappingForProperty(ctx, s.DB, propertyID)
	if err != nil {
		return nil, ErrPropertyNotFound
	}
	return m, nil
}

// ListMappings returns all mappings, newest first.
func (s *PropertyService) ListMappings(ctx context.Context) ([]domain.PropertyMapping, error) {
	return repo.ListMappings(ctx, s.DB)
}

// isDuplicate recognizes the unique-violation shapes glebarez/sqlite emits.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
