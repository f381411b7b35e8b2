// Package auth implements the identity half of the backend: accounts with
// hashed passwords, opaque bearer tokens, and a client that keeps the current
// session, refreshes it, and pushes session changes to listeners.
package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"sync"
	"time"

	"teamboard/app/models"
)

var (
	ErrNotFound           = errors.New("auth: not found")
	ErrEmailTaken         = errors.New("User already registered")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
	ErrInvalidToken       = errors.New("Invalid or expired token")
)

// TokenKind says what a token may be used for.
type TokenKind string

const (
	TokenAccess   TokenKind = "access"
	TokenRefresh  TokenKind = "refresh"
	TokenConfirm  TokenKind = "confirm"
	TokenRecovery TokenKind = "recovery"
)

// Account is a stored identity.
type Account struct {
	ID           string              `json:"id"`
	Email        string              `json:"email"`
	PasswordHash []byte              `json:"password_hash"`
	Metadata     models.UserMetadata `json:"metadata"`
	ConfirmedAt  *time.Time          `json:"confirmed_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// User returns the public view of the account.
func (a *Account) User() *models.User {
	return &models.User{
		ID:               a.ID,
		Email:            a.Email,
		UserMetadata:     a.Metadata,
		EmailConfirmedAt: a.ConfirmedAt,
		CreatedAt:        a.CreatedAt,
	}
}

// Token is an issued credential. Only the SHA-256 of the raw value is kept.
type Token struct {
	ID        string    `json:"id"`
	Kind      TokenKind `json:"kind"`
	UserID    string    `json:"user_id"`
	Hash      []byte    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is no longer valid at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// HashToken returns the lookup key for a raw token value.
func HashToken(raw string) []byte {
	sum := sha256.Sum256([]byte(raw))
	return sum[:]
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Store persists accounts and tokens.
type Store interface {
	// CreateAccount returns ErrEmailTaken when the email is already used.
	CreateAccount(ctx context.Context, a *Account) error
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	AccountByID(ctx context.Context, id string) (*Account, error)
	UpdateAccount(ctx context.Context, a *Account) error
	SaveToken(ctx context.Context, t *Token) error
	TokenByHash(ctx context.Context, hash []byte) (*Token, error)
	DeleteToken(ctx context.Context, id string) error
	DeleteUserTokens(ctx context.Context, userID string) error
}

// SessionStore keeps the client's current session between runs.
type SessionStore interface {
	// Load returns nil, nil when no session is stored.
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	byEmail  map[string]string
	tokens   map[string]*Token
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
		tokens:   make(map[string]*Token),
	}
}

func (m *MemoryStore) CreateAccount(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[a.Email]; exists {
		return ErrEmailTaken
	}
	cp := *a
	m.accounts[a.ID] = &cp
	m.byEmail[a.Email] = a.ID
	return nil
}

func (m *MemoryStore) AccountByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *MemoryStore) AccountByID(_ context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) UpdateAccount(_ context.Context, a *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *MemoryStore) SaveToken(_ context.Context, t *Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *MemoryStore) TokenByHash(_ context.Context, hash []byte) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if string(t.Hash) == string(hash) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) DeleteToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStore) DeleteUserTokens(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, id)
		}
	}
	return nil
}

// MemorySessionStore keeps the session for the life of the process only.
type MemorySessionStore struct {
	mu      sync.Mutex
	session *models.Session
}

func (m *MemorySessionStore) Load(context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	cp := *m.session
	return &cp, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.session = &cp
	return nil
}

func (m *MemorySessionStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
