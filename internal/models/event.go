package models

import "github.com/google/uuid"

type AuthEventType string

const (
	EventInitialSession AuthEventType = "INITIAL_SESSION"
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEventType = "USER_UPDATED"
)

// AuthEvent is an authentication state transition. A zero SessionID
// addresses every session of the identity.
type AuthEvent struct {
	Type       AuthEventType
	IdentityID uuid.UUID
	SessionID  uuid.UUID
	Session    *Session
	User       *Identity
}
