package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/internal/oauth"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
)

// IdentityServiceInterface defines the methods used by handlers from IdentityService
type IdentityServiceInterface interface {
	VerifyCredential(ctx context.Context, email, password string) (*models.Session, error)
	SignInExternal(ctx context.Context, info *oauth.UserInfo) (*models.Session, error)
	SignOut(ctx context.Context, identityID, sessionID uuid.UUID) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
	ConfirmEmail(ctx context.Context, token string) (*models.Identity, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*models.Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

// ProvisionerInterface defines the methods used by handlers from Provisioner
type ProvisionerInterface interface {
	Provision(ctx context.Context, in services.SignUpInput) (*services.Result, error)
}

// ProfileServiceInterface defines the methods used by handlers from ProfileService
type ProfileServiceInterface interface {
	GetAccount(ctx context.Context, identityID uuid.UUID) (*models.Account, error)
	UpdateName(ctx context.Context, identityID uuid.UUID, name string) (*models.Profile, error)
}

// SignInLimiterInterface defines the methods used by handlers from SignInLimiter
type SignInLimiterInterface interface {
	Allow(ctx context.Context, email string) (bool, time.Duration, error)
	Reset(ctx context.Context, email string) error
}
