// Package client talks to the portfolio API on behalf of one browser-like
// user. It keeps the signed-in session locally and emits auth events to
// subscribers, so a pkg/observer.Observer can be driven from it directly.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
)

const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"

	subscriberBuffer = 16
)

// APIError is a non-2xx response. Message is the server's error text,
// unchanged.
type APIError struct {
	Status  int
	Message string
	Notice  *dto.Notice
}

func (e *APIError) Error() string {
	return e.Message
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLocale sets the Accept-Language sent with every request.
func WithLocale(locale string) Option {
	return func(c *Client) { c.locale = locale }
}

type Client struct {
	baseURL string
	http    *http.Client
	locale  string

	mu      sync.RWMutex
	session *dto.Session
	subs    map[int]chan dto.AuthEvent
	nextID  int
}

// New returns a client for the API rooted at baseURL, e.g.
// "https://api.example.com/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		subs:    make(map[int]chan dto.AuthEvent),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, token string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.locale != "" {
		req.Header.Set("Accept-Language", c.locale)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var body dto.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	return &APIError{Status: resp.StatusCode, Message: body.Error, Notice: body.Notice}
}

// Session returns the locally held session, nil when signed out.
func (c *Client) Session() *dto.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) setSession(sess *dto.Session, eventType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(sess, eventType)
}

// clearSession drops the local session only if it still carries token, so
// a sign-in that raced a stale lookup is kept.
func (c *Client) clearSession(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.AccessToken != token {
		return
	}
	c.storeLocked(nil, EventSignedOut)
}

func (c *Client) storeLocked(sess *dto.Session, eventType string) {
	c.session = sess
	ev := dto.AuthEvent{Type: eventType, Session: sess}
	if sess != nil {
		ev.User = sess.User
	}
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SignUp provisions a new account. It does not sign in.
func (c *Client) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.SignUpResponse, error) {
	var resp dto.SignUpResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", req, &resp, ""); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignIn verifies email and password and, on success, stores the session
// and emits SIGNED_IN. On failure local state is left untouched.
func (c *Client) SignIn(ctx context.Context, email, password string) (*dto.SignInResponse, error) {
	var resp dto.SignInResponse
	err := c.do(ctx, http.MethodPost, "/auth/signin", dto.SignInRequest{Email: email, Password: password}, &resp, "")
	if err != nil {
		return nil, err
	}
	c.setSession(resp.Session, EventSignedIn)
	return &resp, nil
}

// SignOut ends the session on the server. The local session is cleared
// and SIGNED_OUT emitted only when the server accepted it.
func (c *Client) SignOut(ctx context.Context) (*dto.SignOutResponse, error) {
	token := c.accessToken()
	if token == "" {
		return &dto.SignOutResponse{}, nil
	}

	var resp dto.SignOutResponse
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, &resp, token); err != nil {
		return nil, err
	}
	c.setSession(nil, EventSignedOut)
	return &resp, nil
}

// Refresh rotates the session's tokens and emits TOKEN_REFRESHED.
func (c *Client) Refresh(ctx context.Context) (*dto.Session, error) {
	c.mu.RLock()
	var refreshToken string
	if c.session != nil {
		refreshToken = c.session.RefreshToken
	}
	c.mu.RUnlock()

	if refreshToken == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Message: "not signed in"}
	}

	var resp dto.SessionResponse
	err := c.do(ctx, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: refreshToken}, &resp, "")
	if err != nil {
		return nil, err
	}
	c.setSession(resp.Session, EventTokenRefreshed)
	return resp.Session, nil
}

// CurrentSession asks the server whether the local session is still live.
// It returns (nil, nil) when signed out; a rejected token is treated the
// same way. Either case clears the local session and emits SIGNED_OUT,
// unless another session replaced it in the meantime.
func (c *Client) CurrentSession(ctx context.Context) (*dto.Session, error) {
	token := c.accessToken()
	if token == "" {
		return nil, nil
	}

	var resp dto.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, &resp, token); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			c.clearSession(token)
			return nil, nil
		}
		return nil, err
	}

	if resp.Session == nil {
		c.clearSession(token)
		return nil, nil
	}

	// the server does not echo tokens on lookups
	resp.Session.AccessToken = token
	c.mu.RLock()
	if c.session != nil && c.session.AccessToken == token {
		resp.Session.RefreshToken = c.session.RefreshToken
		resp.Session.ExpiresIn = c.session.ExpiresIn
	}
	c.mu.RUnlock()
	return resp.Session, nil
}

// Subscribe registers a listener for events emitted by this client. The
// returned func removes it and closes the channel; calling it again is a
// no-op.
func (c *Client) Subscribe(ctx context.Context) (<-chan dto.AuthEvent, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ch := make(chan dto.AuthEvent, subscriberBuffer)

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
	return ch, unsubscribe, nil
}
