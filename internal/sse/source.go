package sse

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
)

const sourceBuffer = 16

type SessionLookup interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
}

// SessionSource feeds a pkg/observer.Observer from the hub for one session.
type SessionSource struct {
	hub        *Hub
	lookup     SessionLookup
	identityID uuid.UUID
	sessionID  uuid.UUID
}

func NewSessionSource(hub *Hub, lookup SessionLookup, identityID, sessionID uuid.UUID) *SessionSource {
	return &SessionSource{hub: hub, lookup: lookup, identityID: identityID, sessionID: sessionID}
}

// Subscribe registers with the hub before returning, so nothing published
// after it returns can be missed.
func (s *SessionSource) Subscribe(ctx context.Context) (<-chan dto.AuthEvent, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	client := &Client{
		ID:         uuid.NewString(),
		IdentityID: s.identityID,
		SessionID:  s.sessionID,
		Send:       make(chan dto.AuthEvent, sourceBuffer),
	}
	s.hub.Register(client)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() { s.hub.Unregister(client) })
	}
	return client.Send, unsubscribe, nil
}

// CurrentSession returns (nil, nil) when the session is gone.
func (s *SessionSource) CurrentSession(ctx context.Context) (*dto.Session, error) {
	sess, err := s.lookup.GetSession(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}
	return sess.ToResponse(), nil
}
