package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
)

const testJWTSecret = "test-secret-key-for-testing-only"

// TestJWTService creates a JWTService with test configuration
func TestJWTService() *services.JWTService {
	return services.NewJWTService(testJWTSecret, 15*time.Minute, 24*time.Hour)
}

// GenerateTestToken returns a valid access token for the given identity and session
func GenerateTestToken(t *testing.T, identityID, sessionID uuid.UUID, email string, role models.Role) string {
	t.Helper()
	pair, err := TestJWTService().GenerateTokenPair(identityID, sessionID, email, role)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return pair.AccessToken
}

// AuthHeader returns an Authorization header value with a Bearer token
func AuthHeader(token string) string {
	return "Bearer " + token
}

// HTTPTestClient sends JSON requests straight to a handler
type HTTPTestClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func NewHTTPTestClient(t *testing.T, handler http.Handler) *HTTPTestClient {
	return &HTTPTestClient{t: t, handler: handler}
}

// WithToken returns a copy that authenticates every request with token.
func (c *HTTPTestClient) WithToken(token string) *HTTPTestClient {
	cp := *c
	cp.token = token
	return &cp
}

func (c *HTTPTestClient) Request(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", AuthHeader(c.token))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c *HTTPTestClient) GET(path string, headers map[string]string) *httptest.ResponseRecorder {
	return c.Request(http.MethodGet, path, nil, headers)
}

func (c *HTTPTestClient) POST(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	return c.Request(http.MethodPost, path, body, headers)
}

func (c *HTTPTestClient) PATCH(path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	return c.Request(http.MethodPatch, path, body, headers)
}

// ParseJSON parses the response body as JSON
func ParseJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to parse response JSON: %v", err)
	}
}

// AssertStatus asserts the response status code
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rec.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rec.Code, rec.Body.String())
	}
}
