package controllers

import (
	"net/http"

	"github.com/alexedwards/scs/v2"

	"teamboard/app/dashboard"
	"teamboard/app/models"
	"teamboard/app/services"
	"teamboard/app/session"
)

// FlashKey is the session key holding the one-time notice for the browser.
const FlashKey = "flash"

// Redirector builds the links put into confirmation and reset emails.
type Redirector interface {
	RedirectURL(r *http.Request, path string) string
}

// AuthController serves sign-up, sign-in, sign-out and password reset.
type AuthController struct {
	auth     *services.AuthService
	session  *session.Controller
	guard    *dashboard.Guard
	redirect Redirector
	flash    *scs.SessionManager
}

// NewAuthController creates a new AuthController
func NewAuthController(a *services.AuthService, s *session.Controller, guard *dashboard.Guard, redirect Redirector, flash *scs.SessionManager) *AuthController {
	return &AuthController{auth: a, session: s, guard: guard, redirect: redirect, flash: flash}
}

type signUpResult struct {
	User                 *models.User `json:"user"`
	ConfirmationRequired bool         `json:"confirmation_required"`
}

type sessionState struct {
	State string       `json:"state"`
	User  *models.User `json:"user"`
}

func (ac *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var in models.SignUpInput
	if err := decode(r, &in); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var user *models.User
	err := ac.guard.Do("signup", func() error {
		var err error
		user, err = ac.auth.SignUp(r.Context(), in, ac.redirect.RedirectURL(r, "/"))
		return err
	})
	if err != nil {
		fail(w, err, nil)
		return
	}

	pending := user.EmailConfirmedAt == nil
	if pending {
		ac.flash.Put(r.Context(), FlashKey, "Check your email for the confirmation link.")
	} else {
		ac.flash.Put(r.Context(), FlashKey, "Welcome, "+user.DisplayName()+"!")
	}
	sendJSON(w, http.StatusCreated, signUpResult{User: user, ConfirmationRequired: pending})
}

func (ac *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	var in models.SignInInput
	if err := decode(r, &in); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var user *models.User
	err := ac.guard.Do("signin", func() error {
		var err error
		user, err = ac.session.SignIn(r.Context(), in)
		return err
	})
	if err != nil {
		fail(w, err, nil)
		return
	}
	ac.flash.Put(r.Context(), FlashKey, "Welcome back, "+user.DisplayName()+"!")
	sendJSON(w, http.StatusOK, sessionState{State: session.Authenticated.String(), User: user})
}

// SignOut ends the session. Cached lists are dropped by the dashboard's
// session watcher.
func (ac *AuthController) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := ac.session.SignOut(r.Context()); err != nil {
		fail(w, err, nil)
		return
	}
	ac.flash.Put(r.Context(), FlashKey, "You have been signed out.")
	sendJSON(w, http.StatusOK, sessionState{State: session.Unauthenticated.String()})
}

// Reset emails a password reset link. The reply is the same whether or not
// the address has an account.
func (ac *AuthController) Reset(w http.ResponseWriter, r *http.Request) {
	var in models.ResetInput
	if err := decode(r, &in); err != nil {
		sendError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	err := ac.guard.Do("reset", func() error {
		return ac.auth.ResetPassword(r.Context(), in, ac.redirect.RedirectURL(r, "/update-password"))
	})
	if err != nil {
		fail(w, err, nil)
		return
	}
	ac.flash.Put(r.Context(), FlashKey, "Password reset email sent.")
	sendJSON(w, http.StatusOK, nil)
}

// Session reports the current session state.
func (ac *AuthController) Session(w http.ResponseWriter, r *http.Request) {
	state, user := ac.session.State()
	sendJSON(w, http.StatusOK, sessionState{State: state.String(), User: user})
}

// Flash returns and forgets the pending notice.
func (ac *AuthController) Flash(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, ac.flash.PopString(r.Context(), FlashKey))
}
