// Package services – AuthService
//
// Staff authentication: verifies a console login against its bcrypt hash and
// issues a signed JWT carrying the staff role. Token verification lives in
// the HTTP middleware; this file only signs.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
	"github.com/propdesk/go-guidebook-backend/internal/repo"

	"go.opentelemetry.io/otel"
)

// StaffClaims is the JWT payload for a console login.
type StaffClaims struct {
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	ManagerID *string `json:"manager_id,omitempty"`
	jwt.RegisteredClaims
}

// AuthService verifies staff credentials and mints tokens.
type AuthService struct {
	DB        *gorm.DB
	JWTSecret string
	TokenTTL  time.Duration
}

// Login checks username/password and returns a signed token plus the staff
// record. Unknown username and wrong password both come back as
// ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.StaffUser, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	u, err := repo.GetStaffByUsername(ctx, s.DB, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Burn a comparison so the miss costs the same as a bad password.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := StaffClaims{
		Username:  u.Username,
		Role:      u.Role,
		ManagerID: u.ManagerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.JWTSecret))
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}
