package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"github.com/portfoliofuturo/portfolio-api/internal/handlers"
	"github.com/portfoliofuturo/portfolio-api/internal/i18n"
	"github.com/portfoliofuturo/portfolio-api/internal/sse"
	"github.com/portfoliofuturo/portfolio-api/pkg/client"
	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
	"github.com/portfoliofuturo/portfolio-api/pkg/observer"
	"github.com/portfoliofuturo/portfolio-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	tdb    *testutil.TestDB
	stack  *stack
	url    string
	client *client.Client
}

func startAPI(t *testing.T) *apiEnv {
	t.Helper()
	tdb := setupTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := sse.NewHub()
	go hub.Run(ctx)

	st := newStack(tdb, config.ProvisioningModeSaga, hub)
	cfg := &config.Config{
		SiteURL:             "http://localhost:5173",
		FrontendCallbackURL: "http://localhost:5173/auth/callback",
	}
	docs, err := handlers.NewDocsHandler(ctx)
	require.NoError(t, err)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	handlers.RegisterRoutes(app, testutil.TestJWTService(), handlers.Routes{
		Auth:   handlers.NewAuthHandler(cfg, st.identities, st.provisioner, nil, i18n.New("pt-BR")),
		Users:  handlers.NewUserHandler(st.identities, st.profiles),
		Events: handlers.NewEventsHandler(hub, st.identities),
		Docs:   docs,
	})

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	return &apiEnv{
		tdb:    tdb,
		stack:  st,
		url:    srv.URL + "/api/v1",
		client: client.New(srv.URL + "/api/v1"),
	}
}

// confirm follows the mailed confirmation link against the test server.
func (e *apiEnv) confirm(t *testing.T, email string) *http.Response {
	t.Helper()
	link, err := url.Parse(e.stack.mail.link(t, email))
	require.NoError(t, err)

	noRedirect := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := noRedirect.Get(e.url + "/auth/confirm?" + link.RawQuery)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAPI_Integration_SignUpSignInSignOut(t *testing.T) {
	env := startAPI(t)
	tdb, c := env.tdb, env.client
	ctx := context.Background()

	signUp, err := c.SignUp(ctx, dto.SignUpRequest{
		Email:                "escola@example.com",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
		Name:                 "Escola Técnica",
		Role:                 "SCHOOL_ADMIN",
		City:                 "Campinas",
		State:                "sp",
	})
	require.NoError(t, err)
	assert.Equal(t, "provisioned", signUp.Outcome)
	assert.Equal(t, "Cadastro realizado!", signUp.Notice.Title)
	assert.Equal(t, 1, tdb.CountRows(t, "school_profiles", signUp.User.ID.String()))

	// unconfirmed email
	_, err = c.SignIn(ctx, "escola@example.com", "secret123")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Email not confirmed", apiErr.Message)

	confirmed := env.confirm(t, "escola@example.com")
	assert.Equal(t, http.StatusFound, confirmed.StatusCode)
	assert.Equal(t, "http://localhost:5173?confirmed=true", confirmed.Header.Get("Location"))

	obs := observer.New(c)
	defer obs.Close()
	require.NoError(t, obs.Start(ctx))
	initial := <-obs.Updates()
	assert.Nil(t, initial.Session)

	signIn, err := c.SignIn(ctx, "escola@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Login realizado!", signIn.Notice.Title)

	select {
	case st := <-obs.Updates():
		assert.False(t, st.Loading)
		require.NotNil(t, st.User)
		assert.Equal(t, "escola@example.com", st.User.Email)
	case <-time.After(2 * time.Second):
		t.Fatal("observer was not updated after sign-in")
	}

	live, err := c.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, signIn.Session.ID, live.ID)

	_, err = c.Refresh(ctx)
	require.NoError(t, err)

	signOut, err := c.SignOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Até logo!", signOut.Notice.Description)
	assert.Nil(t, c.Session())
	assert.Equal(t, 0, tdb.CountRows(t, "sessions", signUp.User.ID.String()))
}

func TestAPI_Integration_DuplicateSignUp(t *testing.T) {
	c := startAPI(t).client
	ctx := context.Background()
	req := dto.SignUpRequest{
		Email:                "ana@example.com",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
		Name:                 "Ana",
		Role:                 "STUDENT",
	}

	_, err := c.SignUp(ctx, req)
	require.NoError(t, err)

	_, err = c.SignUp(ctx, req)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "User already registered", apiErr.Message)
	require.NotNil(t, apiErr.Notice)
	assert.Equal(t, "Erro no cadastro", apiErr.Notice.Title)
}

func TestAPI_Integration_WrongPassword(t *testing.T) {
	env := startAPI(t)
	c := env.client
	fixtures := testutil.NewFixtures(env.tdb.DB)
	ident := fixtures.CreateIdentity(t)

	_, err := c.SignIn(context.Background(), ident.Email, "not-the-password")

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid login credentials", apiErr.Message)
	assert.Equal(t, "Invalid login credentials", apiErr.Notice.Description)
	assert.Nil(t, c.Session())
}

func readState(t *testing.T, scanner *bufio.Scanner) dto.AuthState {
	t.Helper()
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var state dto.AuthState
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &state))
		return state
	}
	t.Fatalf("event stream ended: %v", scanner.Err())
	return dto.AuthState{}
}

func TestAPI_Integration_EventsFollowSignOut(t *testing.T) {
	env := startAPI(t)
	c := env.client
	ctx := context.Background()

	_, err := c.SignUp(ctx, dto.SignUpRequest{
		Email:                "bia@example.com",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
		Name:                 "Bia",
		Role:                 "STUDENT",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, env.confirm(t, "bia@example.com").StatusCode)

	signIn, err := c.SignIn(ctx, "bia@example.com", "secret123")
	require.NoError(t, err)

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, env.url+"/auth/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", testutil.AuthHeader(signIn.Session.AccessToken))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	initial := readState(t, scanner)
	require.NotNil(t, initial.Session)
	assert.Equal(t, signIn.Session.ID, initial.Session.ID)

	_, err = c.SignOut(ctx)
	require.NoError(t, err)

	after := readState(t, scanner)
	assert.Equal(t, "SIGNED_OUT", after.LastEvent)
	assert.Nil(t, after.Session)
}
