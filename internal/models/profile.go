package models

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StudentDetail struct {
	ID         uuid.UUID  `json:"id"`
	IdentityID uuid.UUID  `json:"user_id"`
	Bio        *string    `json:"bio"`
	SchoolID   *uuid.UUID `json:"school_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type CompanyDetail struct {
	ID          uuid.UUID `json:"id"`
	IdentityID  uuid.UUID `json:"user_id"`
	CompanyName string    `json:"company_name"`
	Description *string   `json:"description"`
	Sector      *string   `json:"sector"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Website     *string   `json:"website"`
	LogoURL     *string   `json:"logo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SchoolDetail struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"user_id"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	About      *string   `json:"about"`
	Address    *string   `json:"address"`
	Website    *string   `json:"website"`
	LogoURL    *string   `json:"logo_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Account is a profile joined with whichever detail record its role has.
type Account struct {
	Profile *Profile       `json:"profile"`
	Student *StudentDetail `json:"student,omitempty"`
	Company *CompanyDetail `json:"company,omitempty"`
	School  *SchoolDetail  `json:"school,omitempty"`
}

// IncompleteAccount is an identity whose provisioning never finished.
type IncompleteAccount struct {
	IdentityID uuid.UUID `json:"identity_id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	HasProfile bool      `json:"has_profile"`
	HasDetail  bool      `json:"has_detail"`
	CreatedAt  time.Time `json:"created_at"`
}
