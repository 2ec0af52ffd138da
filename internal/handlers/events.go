package handlers

import (
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/portfoliofuturo/portfolio-api/internal/middleware"
	"github.com/portfoliofuturo/portfolio-api/internal/sse"
	"github.com/portfoliofuturo/portfolio-api/pkg/observer"
)

const stateEvent = "state"

type EventsHandler struct {
	hub      *sse.Hub
	sessions sse.SessionLookup
}

func NewEventsHandler(hub *sse.Hub, sessions sse.SessionLookup) *EventsHandler {
	return &EventsHandler{hub: hub, sessions: sessions}
}

// Stream pushes the caller's auth state as server-sent events: one state
// after the initial session fetch, then one per auth transition on this
// session or identity-wide change.
func (h *EventsHandler) Stream(c *drift.Context) {
	identityID := middleware.GetIdentityID(c)
	sessionID := middleware.GetSessionID(c)
	if identityID == uuid.Nil || sessionID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	ctx := c.Request.Context()

	obs := observer.New(sse.NewSessionSource(h.hub, h.sessions, identityID, sessionID))
	defer obs.Close()

	if err := obs.Start(ctx); err != nil {
		c.InternalServerError("failed to subscribe to auth events")
		return
	}

	sseCtx := c.SSE()

	for {
		select {
		case state, ok := <-obs.Updates():
			if !ok {
				return
			}
			if err := sseCtx.SendJSON(state.DTO(), stateEvent, ""); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
