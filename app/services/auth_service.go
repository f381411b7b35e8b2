package services

import (
	"context"

	"teamboard/app/backend"
	"teamboard/app/models"
)

// AuthService wraps the backend's identity subsystem.
type AuthService struct {
	auth backend.Auth
}

// NewAuthService creates a new AuthService
func NewAuthService(a backend.Auth) *AuthService {
	return &AuthService{auth: a}
}

// SignUp creates an account. The display name is stored as metadata.
// Confirmation links point at redirectTo.
func (s *AuthService) SignUp(ctx context.Context, in models.SignUpInput, redirectTo string) (user *models.User, err error) {
	defer recoverTo("sign up", &err)

	if err := in.Validate(); err != nil {
		return nil, fail("sign up", err)
	}
	user, err = s.auth.SignUp(ctx, backend.SignUpParams{
		Email:      in.Email,
		Password:   in.Password,
		Metadata:   models.UserMetadata{Name: in.Name},
		RedirectTo: redirectTo,
	})
	if err != nil {
		return nil, fail("sign up", err)
	}
	return user, nil
}

// SignIn exchanges credentials for a session.
func (s *AuthService) SignIn(ctx context.Context, in models.SignInInput) (session *models.Session, err error) {
	defer recoverTo("sign in", &err)

	if err := in.Validate(); err != nil {
		return nil, fail("sign in", err)
	}
	session, err = s.auth.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		return nil, fail("sign in", err)
	}
	return session, nil
}

func (s *AuthService) SignOut(ctx context.Context) (err error) {
	defer recoverTo("sign out", &err)

	if err := s.auth.SignOut(ctx); err != nil {
		return fail("sign out", err)
	}
	return nil
}

// ResetPassword asks the backend to email a reset link pointing at
// redirectTo.
func (s *AuthService) ResetPassword(ctx context.Context, in models.ResetInput, redirectTo string) (err error) {
	defer recoverTo("reset password", &err)

	if err := in.Validate(); err != nil {
		return fail("reset password", err)
	}
	if err := s.auth.ResetPasswordForEmail(ctx, in.Email, redirectTo); err != nil {
		return fail("reset password", err)
	}
	return nil
}

// CurrentUser returns the signed-in user, or nil with no error when nobody
// is signed in.
func (s *AuthService) CurrentUser(ctx context.Context) (user *models.User, err error) {
	defer recoverTo("current user", &err)

	user, err = s.auth.GetUser(ctx)
	if err != nil {
		return nil, fail("current user", err)
	}
	return user, nil
}

// OnAuthStateChange registers fn for session changes and returns the
// function that removes it.
func (s *AuthService) OnAuthStateChange(fn backend.AuthListener) func() {
	return s.auth.OnAuthStateChange(fn)
}
