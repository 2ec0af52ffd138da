package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
)

const (
	IdentityIDKey = "identity_id"
	SessionIDKey  = "session_id"
	EmailKey      = "email"
)

// TokenValidator is satisfied by *services.JWTService.
type TokenValidator interface {
	ValidateAccessToken(token string) (*services.Claims, error)
}

func Auth(tokens TokenValidator) drift.HandlerFunc {
	return func(c *drift.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Unauthorized("missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			c.Unauthorized("invalid authorization header format")
			return
		}

		claims, err := tokens.ValidateAccessToken(parts[1])
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(IdentityIDKey, claims.IdentityID)
		c.Set(SessionIDKey, claims.SessionID)
		c.Set(EmailKey, claims.Email)

		c.Next()
	}
}

func GetIdentityID(c *drift.Context) uuid.UUID {
	return getUUID(c, IdentityIDKey)
}

func GetSessionID(c *drift.Context) uuid.UUID {
	return getUUID(c, SessionIDKey)
}

func getUUID(c *drift.Context, key string) uuid.UUID {
	if v, ok := c.Get(key); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func GetEmail(c *drift.Context) string {
	if v, ok := c.Get(EmailKey); ok {
		if e, ok := v.(string); ok {
			return e
		}
	}
	return ""
}
