package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/internal/oauth"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
	"github.com/stretchr/testify/mock"
)

// MockIdentityService mocks the IdentityService
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) session(args mock.Arguments) (*models.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockIdentityService) identity(args mock.Arguments) (*models.Identity, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

func (m *MockIdentityService) VerifyCredential(ctx context.Context, email, password string) (*models.Session, error) {
	return m.session(m.Called(ctx, email, password))
}

func (m *MockIdentityService) SignInExternal(ctx context.Context, info *oauth.UserInfo) (*models.Session, error) {
	return m.session(m.Called(ctx, info))
}

func (m *MockIdentityService) SignOut(ctx context.Context, identityID, sessionID uuid.UUID) error {
	args := m.Called(ctx, identityID, sessionID)
	return args.Error(0)
}

func (m *MockIdentityService) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	return m.session(m.Called(ctx, sessionID))
}

func (m *MockIdentityService) RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error) {
	return m.session(m.Called(ctx, refreshToken))
}

func (m *MockIdentityService) ConfirmEmail(ctx context.Context, token string) (*models.Identity, error) {
	return m.identity(m.Called(ctx, token))
}

func (m *MockIdentityService) UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Identity, error) {
	return m.identity(m.Called(ctx, id, name))
}

func (m *MockIdentityService) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	return m.identity(m.Called(ctx, id))
}

// MockProvisioner mocks the Provisioner
type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Provision(ctx context.Context, in services.SignUpInput) (*services.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Result), args.Error(1)
}

// MockProfileService mocks the ProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetAccount(ctx context.Context, identityID uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, identityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockProfileService) UpdateName(ctx context.Context, identityID uuid.UUID, name string) (*models.Profile, error) {
	args := m.Called(ctx, identityID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockSignInLimiter mocks the SignInLimiter
type MockSignInLimiter struct {
	mock.Mock
}

func (m *MockSignInLimiter) Allow(ctx context.Context, email string) (bool, time.Duration, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}

func (m *MockSignInLimiter) Reset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
