package models

import (
	"time"

	"github.com/google/uuid"
)

// Metadata is the bag attached to an identity at sign-up. Every key is
// serialized even when empty so downstream readers see a stable shape.
type Metadata struct {
	Name        string `json:"name"`
	Role        Role   `json:"role"`
	CompanyName string `json:"company_name"`
	City        string `json:"city"`
	State       string `json:"state"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
	SchoolName  string `json:"school_name"`
	Website     string `json:"website"`
	Bio         string `json:"bio"`
	SchoolCity  string `json:"school_city"`
}

type Identity struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Metadata         Metadata   `json:"user_metadata"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (i *Identity) EmailConfirmed() bool {
	return i.EmailConfirmedAt != nil
}

type Session struct {
	ID               uuid.UUID  `json:"id"`
	IdentityID       uuid.UUID  `json:"identity_id"`
	RefreshTokenHash string     `json:"-"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RefreshedAt      *time.Time `json:"refreshed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`

	// Token fields are only populated right after issuance.
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	ExpiresIn    int64  `json:"-"`

	User *Identity `json:"user,omitempty"`
}
