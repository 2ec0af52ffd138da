package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/portfoliofuturo/portfolio-api/internal/database"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/internal/oauth"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password every fixture identity is created with.
const DefaultPassword = "password123"

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

type identityFixture struct {
	email     string
	meta      models.Metadata
	confirmed bool
}

// IdentityOption configures a fixture identity
type IdentityOption func(*identityFixture)

func WithEmail(email string) IdentityOption {
	return func(f *identityFixture) { f.email = email }
}

func WithName(name string) IdentityOption {
	return func(f *identityFixture) { f.meta.Name = name }
}

func WithRole(role models.Role) IdentityOption {
	return func(f *identityFixture) { f.meta.Role = role }
}

func WithMetadata(meta models.Metadata) IdentityOption {
	return func(f *identityFixture) { f.meta = meta }
}

func Unconfirmed() IdentityOption {
	return func(f *identityFixture) { f.confirmed = false }
}

// CreateIdentity inserts an identity directly, without profile rows. It is
// what a sign-up looks like when provisioning stopped after step one.
func (f *Fixtures) CreateIdentity(t *testing.T, opts ...IdentityOption) *models.Identity {
	t.Helper()
	f.counter++

	fx := &identityFixture{
		email:     fmt.Sprintf("user%d@example.com", f.counter),
		meta:      models.Metadata{Name: fmt.Sprintf("Test User %d", f.counter), Role: models.RoleStudent},
		confirmed: true,
	}
	for _, opt := range opts {
		opt(fx)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	var ident models.Identity
	err = f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO identities (email, password_hash, raw_user_meta_data, email_confirmed_at)
		VALUES ($1, $2, $3, CASE WHEN $4 THEN NOW() END)
		RETURNING id, email, password_hash, raw_user_meta_data, email_confirmed_at, last_sign_in_at, created_at, updated_at
	`, fx.email, string(hash), fx.meta, fx.confirmed).Scan(
		&ident.ID, &ident.Email, &ident.PasswordHash, &ident.Metadata,
		&ident.EmailConfirmedAt, &ident.LastSignInAt, &ident.CreatedAt, &ident.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create identity: %v", err)
	}
	return &ident
}

// CreateProfile inserts the profile row for ident using its metadata.
func (f *Fixtures) CreateProfile(t *testing.T, ident *models.Identity) *models.Profile {
	t.Helper()
	profile, err := services.NewProfileService(f.db).InsertProfile(context.Background(), ident.ID, ident.Metadata.Name, ident.Metadata.Role)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}
	return profile
}

// SignUp returns a complete sign-up input for role.
func (f *Fixtures) SignUp(role models.Role) services.SignUpInput {
	f.counter++
	in := services.SignUpInput{
		Email:    fmt.Sprintf("signup%d@example.com", f.counter),
		Password: DefaultPassword,
		Name:     fmt.Sprintf("Sign Up %d", f.counter),
		Role:     role,
		City:     "Campinas",
	}
	switch role {
	case models.RoleStudent:
		in.Bio = "Estudante de tecnologia"
	case models.RoleCompany:
		in.CompanyName = "Acme Ltda"
		in.Sector = "Software"
	case models.RoleSchoolAdmin:
		in.SchoolName = "Escola Técnica"
		in.Website = "https://escola.example.com"
	}
	return in
}

func OAuthUserInfo(email, provider string) *oauth.UserInfo {
	return &oauth.UserInfo{
		ID:       "provider-" + email,
		Email:    email,
		Name:     "OAuth User",
		Verified: true,
		Provider: provider,
	}
}
