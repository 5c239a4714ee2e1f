// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements StaffAuth, the JWT bearer-token check protecting the
// admin console routes. Tokens are minted by the auth service on login; this
// middleware only verifies the signature and expiry and stashes the claims.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys for authenticated staff identity.
const (
	ctxKeyStaffID   = "staffID"
	ctxKeyStaffUser = "staffUsername"
	ctxKeyStaffRole = "staffRole"
)

// staffClaims mirrors the payload signed by the auth service.
type staffClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// StaffAuth returns a Gin middleware that requires a valid Bearer token
// signed with secret. On success the staff ID, username, and role are stored
// in the Gin context; otherwise the request is aborted with 401 and the
// standard error envelope.
func StaffAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		var claims staffClaims
		token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ctxKeyStaffID, claims.Subject)
		c.Set(ctxKeyStaffUser, claims.Username)
		c.Set(ctxKeyStaffRole, claims.Role)
		c.Next()
	}
}

// RequireRole gates a route group on the staff role claim. Install after
// StaffAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if StaffRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "forbidden",
				"message":    "insufficient role",
			})
			return
		}
		c.Next()
	}
}

// StaffID returns the authenticated staff user ID, or "".
func StaffID(c *gin.Context) string {
	return asString(mustGet(c, ctxKeyStaffID))
}

// StaffUsername returns the authenticated staff username, or "".
func StaffUsername(c *gin.Context) string {
	return asString(mustGet(c, ctxKeyStaffUser))
}

// StaffRole returns the authenticated staff role, or "".
func StaffRole(c *gin.Context) string {
	return asString(mustGet(c, ctxKeyStaffRole))
}

func mustGet(c *gin.Context, key string) interface{} {
	v, _ := c.Get(key)
	return v
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, tolerating case variations in the scheme.
func bearerToken(h string) string {
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="staff"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
