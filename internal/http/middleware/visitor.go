// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides VisitorIdentity, which attaches an anonymous visitor
// identifier to public chatbot requests. Sessions are owned by a visitor, so
// the same identifier must accompany every request of one browser session.
package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
)

// HeaderVisitorID carries the caller's anonymous visitor identifier.
const HeaderVisitorID = "X-Visitor-ID"

const ctxKeyVisitorID = "visitorID"

// visitorIDPat keeps the identifier log- and key-safe.
var visitorIDPat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]{1,64}$`)

// VisitorIdentity stores the visitor identifier from X-Visitor-ID in the Gin
// context. A missing or malformed header falls back to the client IP, which
// keeps single-tab usage working without any client cooperation.
func VisitorIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		vid := c.GetHeader(HeaderVisitorID)
		if vid == "" || !visitorIDPat.MatchString(vid) {
			vid = "ip:" + c.ClientIP()
		}
		c.Set(ctxKeyVisitorID, vid)
		c.Next()
	}
}

// VisitorID returns the visitor identifier attached by VisitorIdentity, or
// the empty string when the middleware did not run.
func VisitorID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyVisitorID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
