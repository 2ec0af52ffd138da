package sse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
	"github.com/portfoliofuturo/portfolio-api/pkg/observer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(identityID, sessionID uuid.UUID) *Client {
	return &Client{
		ID:         uuid.NewString(),
		IdentityID: identityID,
		SessionID:  sessionID,
		Send:       make(chan dto.AuthEvent, 8),
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, ch <-chan dto.AuthEvent) dto.AuthEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return dto.AuthEvent{}
	}
}

func assertNothing(t *testing.T, ch <-chan dto.AuthEvent) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s", ev.Type)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := startHub(t)
	client := newClient(uuid.New(), uuid.Nil)

	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.Send
	assert.False(t, ok)
}

func TestHub_UnregisterNonexistentClient(t *testing.T) {
	hub := startHub(t)

	hub.Unregister(newClient(uuid.New(), uuid.Nil))
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_PublishRoutesByIdentity(t *testing.T) {
	hub := startHub(t)
	identityID := uuid.New()
	mine := newClient(identityID, uuid.Nil)
	other := newClient(uuid.New(), uuid.Nil)
	hub.Register(mine)
	hub.Register(other)

	user := &models.Identity{ID: identityID, Email: "ana@example.com"}
	hub.Publish(models.AuthEvent{Type: models.EventUserUpdated, IdentityID: identityID, User: user})

	ev := receive(t, mine.Send)
	assert.Equal(t, "USER_UPDATED", ev.Type)
	assert.Equal(t, "ana@example.com", ev.User.Email)
	assertNothing(t, other.Send)
}

func TestHub_PublishRoutesBySession(t *testing.T) {
	hub := startHub(t)
	identityID := uuid.New()
	sessA, sessB := uuid.New(), uuid.New()
	clientA := newClient(identityID, sessA)
	clientB := newClient(identityID, sessB)
	all := newClient(identityID, uuid.Nil)
	hub.Register(clientA)
	hub.Register(clientB)
	hub.Register(all)

	hub.Publish(models.AuthEvent{
		Type:       models.EventSignedOut,
		IdentityID: identityID,
		SessionID:  sessA,
	})

	assert.Equal(t, "SIGNED_OUT", receive(t, clientA.Send).Type)
	assert.Equal(t, "SIGNED_OUT", receive(t, all.Send).Type)
	assertNothing(t, clientB.Send)
}

func TestHub_FullBufferDropped(t *testing.T) {
	hub := startHub(t)
	identityID := uuid.New()
	client := &Client{ID: "slow", IdentityID: identityID, Send: make(chan dto.AuthEvent, 1)}
	hub.Register(client)

	for range 3 {
		hub.Publish(models.AuthEvent{Type: models.EventTokenRefreshed, IdentityID: identityID})
	}
	time.Sleep(20 * time.Millisecond)

	assert.Len(t, client.Send, 1)
}

func TestHub_RunStopsAndClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := newClient(uuid.New(), uuid.Nil)
	hub.Register(client)
	cancel()
	<-stopped

	_, ok := <-client.Send
	assert.False(t, ok)

	// no-ops once stopped
	hub.Publish(models.AuthEvent{Type: models.EventSignedIn})
	hub.Unregister(client)
	late := newClient(uuid.New(), uuid.Nil)
	hub.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok)
}

type stubLookup struct {
	session *models.Session
	err     error
}

func (s stubLookup) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	return s.session, s.err
}

var _ observer.Source = (*SessionSource)(nil)

func TestSessionSource_CurrentSession(t *testing.T) {
	hub := startHub(t)
	identityID, sessionID := uuid.New(), uuid.New()
	sess := &models.Session{ID: sessionID, IdentityID: identityID, User: &models.Identity{ID: identityID}}

	src := NewSessionSource(hub, stubLookup{session: sess}, identityID, sessionID)
	got, err := src.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sessionID, got.ID)

	gone := NewSessionSource(hub, stubLookup{}, identityID, sessionID)
	got, err = gone.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)

	broken := NewSessionSource(hub, stubLookup{err: errors.New("db down")}, identityID, sessionID)
	_, err = broken.CurrentSession(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestSessionSource_DrivesObserver(t *testing.T) {
	hub := startHub(t)
	identityID, sessionID := uuid.New(), uuid.New()
	user := &models.Identity{ID: identityID, Email: "ana@example.com"}
	sess := &models.Session{ID: sessionID, IdentityID: identityID, User: user}

	obs := observer.New(NewSessionSource(hub, stubLookup{session: sess}, identityID, sessionID))
	require.NoError(t, obs.Start(context.Background()))

	st := <-obs.Updates()
	require.NotNil(t, st.Session)
	assert.Equal(t, sessionID, st.Session.ID)

	hub.Publish(models.AuthEvent{Type: models.EventSignedOut, IdentityID: identityID, SessionID: sessionID})

	require.Eventually(t, func() bool {
		s := obs.State()
		return s.Session == nil && s.LastEvent == "SIGNED_OUT"
	}, time.Second, 5*time.Millisecond)

	obs.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
