package models

import (
	"strings"
	"time"
)

// UserMetadata is free-form profile data stored with an account.
type UserMetadata struct {
	Name string `json:"name,omitempty"`
}

// User is the authenticated principal.
type User struct {
	ID               string       `json:"id"`
	Email            string       `json:"email"`
	UserMetadata     UserMetadata `json:"user_metadata"`
	EmailConfirmedAt *time.Time   `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// DisplayName is the metadata name, or the local part of the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.UserMetadata.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// Session is a proof of authentication issued by the identity provider.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`
}

// Expired reports whether the access token is past its expiry, allowing
// for the given margin.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s == nil || s.ExpiresAt == 0 {
		return false
	}
	return !now.Add(margin).Before(time.Unix(s.ExpiresAt, 0))
}

// SignUpInput is what the sign-up form collects.
type SignUpInput struct {
	Name            string `json:"name" validate:"max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// Validate checks the sign-up form. Mismatched passwords are reported before
// the length rule so the user sees the more specific problem first.
func (in *SignUpInput) Validate() error {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Password != in.ConfirmPassword {
		return &ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	}
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	return nil
}

// SignInInput is what the sign-in form collects.
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (in *SignInInput) Validate() error {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	return nil
}

// ResetInput is what the forgot-password form collects.
type ResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

func (in *ResetInput) Validate() error {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	return nil
}
