// Package backend defines the contract the dashboard needs from its hosted
// data and identity service: relational table access and an auth subsystem
// with push notifications.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"teamboard/app/models"
)

// ErrNotFound is returned when a lookup that expects one row finds none.
var ErrNotFound = errors.New("record not found")

// Filter is an equality condition on one column.
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts a select by one column.
type Order struct {
	Column    string
	Ascending bool
}

// Query narrows a select. The zero value selects every row in storage order.
type Query struct {
	Filters []Filter
	Order   []Order
	Limit   int
}

// Row is one record as JSON, exactly as the backend returned it.
type Row = json.RawMessage

// Tables is relational CRUD over named tables.
type Tables interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	// Insert writes all rows in one request and returns them as stored,
	// in backend-assigned order.
	Insert(ctx context.Context, table string, rows []map[string]any) ([]Row, error)
	// Update applies patch to every row matching filters and returns the
	// updated rows.
	Update(ctx context.Context, table string, patch map[string]any, filters ...Filter) ([]Row, error)
}

// Incrementer is implemented by backends that can add to a numeric column in
// a single atomic statement.
type Incrementer interface {
	Increment(ctx context.Context, table, column string, by int64, filters ...Filter) ([]Row, error)
}

// AuthEvent names a session change pushed by the auth subsystem.
type AuthEvent string

const (
	EventInitialSession   AuthEvent = "INITIAL_SESSION"
	EventSignedIn         AuthEvent = "SIGNED_IN"
	EventSignedOut        AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed   AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated      AuthEvent = "USER_UPDATED"
	EventPasswordRecovery AuthEvent = "PASSWORD_RECOVERY"
)

// AuthListener receives session changes. session is nil when signed out.
type AuthListener func(event AuthEvent, session *models.Session)

// SignUpParams is an account creation request.
type SignUpParams struct {
	Email      string
	Password   string
	Metadata   models.UserMetadata
	RedirectTo string
}

// Auth is the identity subsystem as seen by one client.
type Auth interface {
	SignUp(ctx context.Context, p SignUpParams) (*models.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context) error
	// GetUser returns the principal of the stored session, or nil when no
	// valid session exists.
	GetUser(ctx context.Context) (*models.User, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	// OnAuthStateChange registers fn and returns a func that removes it.
	OnAuthStateChange(fn AuthListener) (unsubscribe func())
}

// Client is a configured handle to the whole backend.
type Client interface {
	Tables
	Auth
	Close() error
}

// Error is a failure reported by the backend itself.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (status %d)", e.Status)
	}
	return e.Message
}

// Errorf builds a backend Error with a formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
