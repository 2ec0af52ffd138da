package dto

import (
	"time"

	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Name                 string `json:"name" validate:"required,max=255"`
	Role                 string `json:"role" validate:"required,oneof=STUDENT COMPANY SCHOOL_ADMIN TEACHER"`
	CompanyName          string `json:"company_name,omitempty" validate:"max=255"`
	Sector               string `json:"sector,omitempty" validate:"max=255"`
	City                 string `json:"city,omitempty" validate:"max=255"`
	State                string `json:"state,omitempty" validate:"omitempty,len=2"`
	Description          string `json:"description,omitempty"`
	SchoolName           string `json:"school_name,omitempty" validate:"max=255"`
	Website              string `json:"website,omitempty" validate:"omitempty,max=500"`
	Bio                  string `json:"bio,omitempty"`
	SchoolCity           string `json:"school_city,omitempty" validate:"max=255"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ConsentURLResponse struct {
	URL string `json:"url"`
}

type ExchangeCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// Notice is a user-facing toast: title, description and a variant
// ("default" or "destructive").
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

type Session struct {
	ID           uuid.UUID     `json:"id"`
	AccessToken  string        `json:"access_token,omitempty"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	ExpiresIn    int64         `json:"expires_in,omitempty"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         *UserResponse `json:"user"`
}

type SignUpResponse struct {
	User    *UserResponse `json:"user"`
	Outcome string        `json:"outcome"`
	Notice  Notice        `json:"notice"`
}

type SignInResponse struct {
	Session *Session `json:"session"`
	Notice  Notice   `json:"notice"`
}

type SignOutResponse struct {
	Notice Notice `json:"notice"`
}

type SessionResponse struct {
	Session *Session `json:"session"`
}

type ErrorResponse struct {
	Error  string  `json:"error"`
	Notice *Notice `json:"notice,omitempty"`
}

// AuthEvent is what the events stream pushes for every auth transition.
type AuthEvent struct {
	Type    string        `json:"type"`
	Session *Session      `json:"session"`
	User    *UserResponse `json:"user,omitempty"`
}

// AuthState is a snapshot of an observer.
type AuthState struct {
	User      *UserResponse `json:"user"`
	Session   *Session      `json:"session"`
	Loading   bool          `json:"loading"`
	Error     string        `json:"error,omitempty"`
	LastEvent string        `json:"last_event,omitempty"`
}
