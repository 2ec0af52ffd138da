package dto

import (
	"time"

	"github.com/google/uuid"
)

type UserMetadata struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
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

type UserResponse struct {
	ID               uuid.UUID    `json:"id"`
	Email            string       `json:"email"`
	UserMetadata     UserMetadata `json:"user_metadata"`
	EmailConfirmedAt *time.Time   `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time   `json:"last_sign_in_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

type UpdateUserRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type ProfileResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Role string    `json:"role"`
}

type StudentResponse struct {
	Bio      *string    `json:"bio"`
	SchoolID *uuid.UUID `json:"school_id"`
}

type CompanyResponse struct {
	CompanyName string  `json:"company_name"`
	Description *string `json:"description"`
	Sector      *string `json:"sector"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Website     *string `json:"website"`
	LogoURL     *string `json:"logo_url"`
}

type SchoolResponse struct {
	City    string  `json:"city"`
	State   string  `json:"state"`
	About   *string `json:"about"`
	Address *string `json:"address"`
	Website *string `json:"website"`
	LogoURL *string `json:"logo_url"`
}

// AccountResponse is the signed-in user's identity plus provisioned rows.
// Profile is null when provisioning never got past the identity step.
type AccountResponse struct {
	User    *UserResponse    `json:"user"`
	Profile *ProfileResponse `json:"profile"`
	Student *StudentResponse `json:"student,omitempty"`
	Company *CompanyResponse `json:"company,omitempty"`
	School  *SchoolResponse  `json:"school,omitempty"`
}
