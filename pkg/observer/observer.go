// Package observer mirrors authentication state from a Source: one
// initial fetch plus every pushed auth event, newest arrival wins.
package observer

import (
	"context"
	"sync"

	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
)

const (
	EventSignedOut   = "SIGNED_OUT"
	EventUserUpdated = "USER_UPDATED"
)

// Source is an auth provider that can report the current session and
// push state transitions.
type Source interface {
	// Subscribe must be registered by the time it returns. The returned
	// func cancels the subscription and is safe to call more than once.
	Subscribe(ctx context.Context) (<-chan dto.AuthEvent, func(), error)
	// CurrentSession returns (nil, nil) when signed out.
	CurrentSession(ctx context.Context) (*dto.Session, error)
}

type State struct {
	User      *dto.UserResponse
	Session   *dto.Session
	Loading   bool
	Err       error
	LastEvent string
}

func (s State) DTO() dto.AuthState {
	out := dto.AuthState{
		User:      s.User,
		Session:   s.Session,
		Loading:   s.Loading,
		LastEvent: s.LastEvent,
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return out
}

type Observer struct {
	src Source

	mu     sync.RWMutex
	state  State
	pushed bool
	closed bool

	updates     chan State
	unsubscribe func()
	done        chan struct{}
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

func New(src Source) *Observer {
	return &Observer{
		src:     src,
		state:   State{Loading: true},
		updates: make(chan State, 1),
		done:    make(chan struct{}),
	}
}

// Start subscribes, then fetches the current session once. A fetch that
// completes after an event was already applied is discarded. Only a
// subscription failure is returned; fetch failures land in State.Err.
func (o *Observer) Start(ctx context.Context) error {
	events, unsubscribe, err := o.src.Subscribe(ctx)
	if err != nil {
		o.mu.Lock()
		o.state.Err = err
		o.state.Loading = false
		o.publishLocked()
		o.mu.Unlock()
		return err
	}

	o.mu.Lock()
	select {
	case <-o.done:
		o.mu.Unlock()
		unsubscribe()
		return nil
	default:
	}
	o.unsubscribe = unsubscribe
	o.wg.Add(1)
	o.mu.Unlock()

	go o.listen(events)

	sess, err := o.src.CurrentSession(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pushed {
		return nil
	}
	if err != nil {
		o.state.Err = err
	} else {
		o.state.Session = sess
		o.state.User = nil
		if sess != nil {
			o.state.User = sess.User
		}
	}
	o.state.Loading = false
	o.publishLocked()
	return nil
}

func (o *Observer) listen(events <-chan dto.AuthEvent) {
	defer o.wg.Done()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			o.apply(ev)
		case <-o.done:
			return
		}
	}
}

func (o *Observer) apply(ev dto.AuthEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pushed = true
	switch ev.Type {
	case EventSignedOut:
		o.state.Session = nil
		o.state.User = nil
	case EventUserUpdated:
		if ev.User != nil {
			o.state.User = ev.User
			if o.state.Session != nil {
				sess := *o.state.Session
				sess.User = ev.User
				o.state.Session = &sess
			}
		}
	default:
		o.state.Session = ev.Session
		o.state.User = ev.User
		if o.state.User == nil && ev.Session != nil {
			o.state.User = ev.Session.User
		}
	}
	o.state.Loading = false
	o.state.Err = nil
	o.state.LastEvent = ev.Type
	o.publishLocked()
}

// publishLocked replaces any unread state with the newest one. Every
// writer holds mu, so the send never blocks.
func (o *Observer) publishLocked() {
	if o.closed {
		return
	}
	select {
	case <-o.updates:
	default:
	}
	o.updates <- o.state
}

func (o *Observer) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Updates yields the newest state after each change. Unread states are
// overwritten. The channel is closed by Close.
func (o *Observer) Updates() <-chan State {
	return o.updates
}

func (o *Observer) Close() {
	o.closeOnce.Do(func() {
		close(o.done)

		o.mu.Lock()
		unsubscribe := o.unsubscribe
		o.mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
		}

		o.wg.Wait()

		o.mu.Lock()
		o.closed = true
		close(o.updates)
		o.mu.Unlock()
	})
}
