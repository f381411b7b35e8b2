// Package mock is an in-memory backend for tests. Every operation is counted
// and can be made to fail or panic on its next call.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"teamboard/app/backend"
	"teamboard/app/models"
)

// Operation names accepted by Calls, FailNext and PanicNext.
const (
	OpSelect    = "select"
	OpInsert    = "insert"
	OpUpdate    = "update"
	OpIncrement = "increment"
	OpSignUp    = "signup"
	OpSignIn    = "signin"
	OpSignOut   = "signout"
	OpGetUser   = "getuser"
	OpReset     = "reset"
)

type account struct {
	password string
	user     *models.User
}

// Reset records a password reset request.
type Reset struct {
	Email      string
	RedirectTo string
}

// Client is a fake backend.Client.
type Client struct {
	mu      sync.Mutex
	tables  map[string][]backend.Doc
	nextID  map[string]int64
	clock   time.Time
	users   map[string]*account
	session *models.Session
	tokens  int
	calls   map[string]int
	fail    map[string]error
	panics  map[string]any
	resets  []Reset
	hub     *backend.Hub

	// AfterSelect runs after a select has read its rows and before it
	// returns, outside the lock.
	AfterSelect func(table string)
	// BeforeGetUser runs at the start of GetUser, outside the lock.
	BeforeGetUser func()
	// ConfirmEmail makes SignUp withhold the session.
	ConfirmEmail bool
}

// New returns an empty fake backend.
func New() *Client {
	return &Client{
		tables: make(map[string][]backend.Doc),
		nextID: make(map[string]int64),
		clock:  time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		users:  make(map[string]*account),
		calls:  make(map[string]int),
		fail:   make(map[string]error),
		panics: make(map[string]any),
		hub:    backend.NewHub(),
	}
}

// Calls returns how many times op was invoked.
func (c *Client) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// TotalCalls returns the number of table operations invoked.
func (c *Client) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[OpSelect] + c.calls[OpInsert] + c.calls[OpUpdate] + c.calls[OpIncrement]
}

// FailNext makes the next call of op return err.
func (c *Client) FailNext(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[op] = err
}

// PanicNext makes the next call of op panic with v.
func (c *Client) PanicNext(op string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panics[op] = v
}

// Rows returns a copy of a table's documents.
func (c *Client) Rows(table string) []backend.Doc {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]backend.Doc, len(c.tables[table]))
	for i, d := range c.tables[table] {
		out[i] = clone(d)
	}
	return out
}

// Resets returns the password reset requests received so far.
func (c *Client) Resets() []Reset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Reset(nil), c.resets...)
}

// check counts a call of op and applies any injected failure.
func (c *Client) check(op string) error {
	c.mu.Lock()
	c.calls[op]++
	v, shouldPanic := c.panics[op]
	delete(c.panics, op)
	err := c.fail[op]
	delete(c.fail, op)
	c.mu.Unlock()
	if shouldPanic {
		panic(v)
	}
	return err
}

func (c *Client) Select(_ context.Context, table string, q backend.Query) ([]backend.Row, error) {
	if err := c.check(OpSelect); err != nil {
		return nil, err
	}
	c.mu.Lock()
	docs := make([]backend.Doc, 0)
	for _, d := range c.tables[table] {
		if d.Matches(q.Filters) {
			docs = append(docs, clone(d))
		}
	}
	c.mu.Unlock()

	backend.SortDocs(docs, q.Order)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	if c.AfterSelect != nil {
		c.AfterSelect(table)
	}
	return encode(docs)
}

// Insert stores all rows or none. Ids count up from 1 per table and each row
// is stamped one second after the previous one.
func (c *Client) Insert(_ context.Context, table string, rows []map[string]any) ([]backend.Row, error) {
	if err := c.check(OpInsert); err != nil {
		return nil, err
	}
	docs := make([]backend.Doc, 0, len(rows))
	for _, r := range rows {
		d, err := toDoc(r)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	c.mu.Lock()
	for _, d := range docs {
		c.nextID[table]++
		c.clock = c.clock.Add(time.Second)
		d["id"] = json.Number(strconv.FormatInt(c.nextID[table], 10))
		if _, ok := d["created_at"]; !ok {
			d["created_at"] = c.clock.Format(time.RFC3339Nano)
		}
		c.tables[table] = append(c.tables[table], clone(d))
	}
	c.mu.Unlock()
	return encode(docs)
}

func (c *Client) Update(_ context.Context, table string, patch map[string]any, filters ...backend.Filter) ([]backend.Row, error) {
	if err := c.check(OpUpdate); err != nil {
		return nil, err
	}
	p, err := toDoc(patch)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	updated := make([]backend.Doc, 0)
	for _, d := range c.tables[table] {
		if !d.Matches(filters) {
			continue
		}
		for k, v := range p {
			d[k] = v
		}
		updated = append(updated, clone(d))
	}
	c.mu.Unlock()
	return encode(updated)
}

// Emit pushes an auth event to listeners as the backend would.
func (c *Client) Emit(event backend.AuthEvent, s *models.Session) {
	c.hub.Publish(event, s)
}

// Listeners returns the number of registered auth listeners.
func (c *Client) Listeners() int {
	return c.hub.Len()
}

// AddUser registers an account that can sign in.
func (c *Client) AddUser(email, password, name string) *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := &models.User{
		ID:           fmt.Sprintf("user-%d", len(c.users)+1),
		Email:        email,
		UserMetadata: models.UserMetadata{Name: name},
		CreatedAt:    c.clock,
	}
	c.users[email] = &account{password: password, user: u}
	return u
}

// SetSession stores s as if it had been restored from a previous run.
func (c *Client) SetSession(s *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// NewSession builds a session for u without storing it.
func (c *Client) NewSession(u *models.User) *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newSession(u)
}

func (c *Client) newSession(u *models.User) *models.Session {
	c.tokens++
	return &models.Session{
		AccessToken:  fmt.Sprintf("access-%d", c.tokens),
		RefreshToken: fmt.Sprintf("refresh-%d", c.tokens),
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    c.clock.Add(time.Hour).Unix(),
		User:         u,
	}
}

func (c *Client) SignUp(_ context.Context, p backend.SignUpParams) (*models.User, error) {
	if err := c.check(OpSignUp); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if _, exists := c.users[p.Email]; exists {
		c.mu.Unlock()
		return nil, &backend.Error{Status: 422, Code: "user_already_exists", Message: "User already registered"}
	}
	u := &models.User{
		ID:           fmt.Sprintf("user-%d", len(c.users)+1),
		Email:        p.Email,
		UserMetadata: p.Metadata,
		CreatedAt:    c.clock,
	}
	c.users[p.Email] = &account{password: p.Password, user: u}
	if c.ConfirmEmail {
		c.mu.Unlock()
		return u, nil
	}
	c.session = c.newSession(u)
	s := c.session
	c.mu.Unlock()
	c.hub.Publish(backend.EventSignedIn, s)
	return u, nil
}

func (c *Client) SignInWithPassword(_ context.Context, email, password string) (*models.Session, error) {
	if err := c.check(OpSignIn); err != nil {
		return nil, err
	}
	c.mu.Lock()
	acct, ok := c.users[email]
	if !ok || acct.password != password {
		c.mu.Unlock()
		return nil, &backend.Error{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	c.session = c.newSession(acct.user)
	s := c.session
	c.mu.Unlock()
	c.hub.Publish(backend.EventSignedIn, s)
	return s, nil
}

func (c *Client) SignOut(context.Context) error {
	if err := c.check(OpSignOut); err != nil {
		return err
	}
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.hub.Publish(backend.EventSignedOut, nil)
	return nil
}

func (c *Client) GetUser(context.Context) (*models.User, error) {
	if c.BeforeGetUser != nil {
		c.BeforeGetUser()
	}
	if err := c.check(OpGetUser); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	return c.session.User, nil
}

func (c *Client) ResetPasswordForEmail(_ context.Context, email, redirectTo string) error {
	if err := c.check(OpReset); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resets = append(c.resets, Reset{Email: email, RedirectTo: redirectTo})
	return nil
}

func (c *Client) OnAuthStateChange(fn backend.AuthListener) func() {
	return c.hub.Subscribe(fn)
}

func (c *Client) Close() error {
	return c.hub.Close()
}

// AtomicClient is a fake whose tables also support atomic increments.
type AtomicClient struct {
	*Client
}

// NewAtomic returns an empty fake backend with increment support.
func NewAtomic() *AtomicClient {
	return &AtomicClient{Client: New()}
}

func (c *AtomicClient) Increment(_ context.Context, table, column string, by int64, filters ...backend.Filter) ([]backend.Row, error) {
	if err := c.check(OpIncrement); err != nil {
		return nil, err
	}
	c.mu.Lock()
	updated := make([]backend.Doc, 0)
	for _, d := range c.tables[table] {
		if !d.Matches(filters) {
			continue
		}
		n, err := strconv.ParseInt(fmt.Sprint(d[column]), 10, 64)
		if err != nil {
			c.mu.Unlock()
			return nil, backend.Errorf("22P02", "column %q is not an integer", column)
		}
		d[column] = json.Number(strconv.FormatInt(n+by, 10))
		updated = append(updated, clone(d))
	}
	c.mu.Unlock()
	return encode(updated)
}

func toDoc(row map[string]any) (backend.Doc, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	return backend.DecodeDoc(data)
}

func clone(d backend.Doc) backend.Doc {
	cp := make(backend.Doc, len(d))
	for k, v := range d {
		cp[k] = v
	}
	return cp
}

func encode(docs []backend.Doc) ([]backend.Row, error) {
	rows := make([]backend.Row, 0, len(docs))
	for _, d := range docs {
		data, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to encode row: %w", err)
		}
		rows = append(rows, data)
	}
	return rows, nil
}
