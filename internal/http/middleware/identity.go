// Package middleware contains the Gin middleware shared by every route:
// caller identity, request ids, access logging with redaction, panic
// recovery, Prometheus metrics, rate limiting, idempotency keys and security
// headers.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the caller's user id. Authentication is handled
	// upstream; this service trusts the header.
	HeaderUserID = "X-User-ID"

	// ctxKeyUserID is the Gin context key holding the resolved user id.
	ctxKeyUserID = "userID"

	// AnonymousUser is used when a request carries no identity.
	AnonymousUser = "demo-user"
)

// Identity resolves the caller's user id once per request and stores it in
// the Gin context, so rate limiting, logging and handlers agree on it. A
// value already set by an upstream auth middleware wins over the header.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxKeyUserID); !ok {
			if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
				c.Set(ctxKeyUserID, h)
			}
		}
		c.Next()
	}
}

// UserID returns the resolved user id, falling back to the X-User-ID header
// and then to AnonymousUser.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader(HeaderUserID)); h != "" {
			return h
		}
	}
	return AnonymousUser
}
