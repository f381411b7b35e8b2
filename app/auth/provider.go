package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"teamboard/app/backend"
	"teamboard/app/models"
)

// Provider is the identity service a Client talks to.
type Provider interface {
	// SignUp creates an account. The session is nil when the account must
	// confirm its email before signing in.
	SignUp(ctx context.Context, p backend.SignUpParams) (*models.User, *models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
	User(ctx context.Context, accessToken string) (*models.User, error)
	SignOut(ctx context.Context, accessToken string) error
	Recover(ctx context.Context, email, redirectTo string) error
}

// Options tune a LocalProvider.
type Options struct {
	// RequireConfirmation withholds a session at sign-up until the emailed
	// link is used.
	RequireConfirmation bool
	AccessTTL           time.Duration
	RefreshTTL          time.Duration
	LinkTTL             time.Duration
	BcryptCost          int
}

func (o Options) withDefaults() Options {
	if o.AccessTTL <= 0 {
		o.AccessTTL = time.Hour
	}
	if o.RefreshTTL <= 0 {
		o.RefreshTTL = 30 * 24 * time.Hour
	}
	if o.LinkTTL <= 0 {
		o.LinkTTL = 24 * time.Hour
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	return o
}

// LocalProvider issues accounts and tokens from a Store.
type LocalProvider struct {
	store  Store
	mailer Mailer
	opts   Options
	now    func() time.Time
}

// NewLocalProvider creates a provider. A nil mailer logs instead of sending.
func NewLocalProvider(store Store, mailer Mailer, opts Options) *LocalProvider {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &LocalProvider{store: store, mailer: mailer, opts: opts.withDefaults(), now: time.Now}
}

// SetClock replaces the provider's time source.
func (p *LocalProvider) SetClock(now func() time.Time) {
	p.now = now
}

func (p *LocalProvider) SignUp(ctx context.Context, in backend.SignUpParams) (*models.User, *models.Session, error) {
	email := NormalizeEmail(in.Email)
	if _, err := p.store.AccountByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, nil, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), p.opts.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	now := p.now().UTC()
	acct := &Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Metadata:     in.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if !p.opts.RequireConfirmation {
		acct.ConfirmedAt = &now
	}
	if err := p.store.CreateAccount(ctx, acct); err != nil {
		return nil, nil, err
	}

	if p.opts.RequireConfirmation {
		raw, err := p.issue(ctx, acct.ID, TokenConfirm, p.opts.LinkTTL)
		if err != nil {
			return nil, nil, err
		}
		msg := Message{To: email, Subject: "Confirm your signup", Link: actionLink(in.RedirectTo, TokenConfirm, raw)}
		if err := p.mailer.Send(ctx, msg); err != nil {
			return nil, nil, fmt.Errorf("send confirmation: %w", err)
		}
		return acct.User(), nil, nil
	}

	sess, err := p.session(ctx, acct)
	if err != nil {
		return nil, nil, err
	}
	return acct.User(), sess, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	acct, err := p.store.AccountByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if acct.ConfirmedAt == nil {
		return nil, ErrEmailNotConfirmed
	}
	return p.session(ctx, acct)
}

// Refresh exchanges a refresh token for a new session. The old refresh
// token is consumed.
func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	tok, err := p.lookup(ctx, refreshToken, TokenRefresh)
	if err != nil {
		return nil, err
	}
	if err := p.store.DeleteToken(ctx, tok.ID); err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	acct, err := p.store.AccountByID(ctx, tok.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return p.session(ctx, acct)
}

func (p *LocalProvider) User(ctx context.Context, accessToken string) (*models.User, error) {
	tok, err := p.lookup(ctx, accessToken, TokenAccess)
	if err != nil {
		return nil, err
	}
	acct, err := p.store.AccountByID(ctx, tok.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return acct.User(), nil
}

// SignOut revokes every token of the access token's owner. An unknown or
// expired token is not an error.
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	tok, err := p.lookup(ctx, accessToken, TokenAccess)
	if errors.Is(err, ErrInvalidToken) {
		return nil
	}
	if err != nil {
		return err
	}
	return p.store.DeleteUserTokens(ctx, tok.UserID)
}

// Recover emails a password-reset link. Unknown addresses succeed silently.
func (p *LocalProvider) Recover(ctx context.Context, email, redirectTo string) error {
	email = NormalizeEmail(email)
	acct, err := p.store.AccountByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	raw, err := p.issue(ctx, acct.ID, TokenRecovery, p.opts.LinkTTL)
	if err != nil {
		return err
	}
	msg := Message{To: email, Subject: "Reset your password", Link: actionLink(redirectTo, TokenRecovery, raw)}
	if err := p.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send recovery: %w", err)
	}
	return nil
}

// Confirm marks the account behind a confirmation token as confirmed and
// signs it in.
func (p *LocalProvider) Confirm(ctx context.Context, token string) (*models.Session, error) {
	tok, err := p.lookup(ctx, token, TokenConfirm)
	if err != nil {
		return nil, err
	}
	acct, err := p.store.AccountByID(ctx, tok.UserID)
	if err != nil {
		return nil, err
	}
	now := p.now().UTC()
	acct.ConfirmedAt = &now
	acct.UpdatedAt = now
	if err := p.store.UpdateAccount(ctx, acct); err != nil {
		return nil, fmt.Errorf("confirm account: %w", err)
	}
	if err := p.store.DeleteToken(ctx, tok.ID); err != nil {
		return nil, err
	}
	return p.session(ctx, acct)
}

// ResetPassword sets a new password using a recovery token and revokes all
// existing sessions of the account.
func (p *LocalProvider) ResetPassword(ctx context.Context, token, password string) error {
	tok, err := p.lookup(ctx, token, TokenRecovery)
	if err != nil {
		return err
	}
	acct, err := p.store.AccountByID(ctx, tok.UserID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acct.PasswordHash = hash
	acct.UpdatedAt = p.now().UTC()
	if err := p.store.UpdateAccount(ctx, acct); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return p.store.DeleteUserTokens(ctx, acct.ID)
}

func (p *LocalProvider) session(ctx context.Context, acct *Account) (*models.Session, error) {
	access, err := p.issue(ctx, acct.ID, TokenAccess, p.opts.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := p.issue(ctx, acct.ID, TokenRefresh, p.opts.RefreshTTL)
	if err != nil {
		return nil, err
	}
	expiresAt := p.now().Add(p.opts.AccessTTL)
	return &models.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(p.opts.AccessTTL / time.Second),
		ExpiresAt:    expiresAt.Unix(),
		User:         acct.User(),
	}, nil
}

// issue stores a new token and returns its raw value.
func (p *LocalProvider) issue(ctx context.Context, userID string, kind TokenKind, ttl time.Duration) (string, error) {
	raw := uuid.NewString()
	now := p.now().UTC()
	tok := &Token{
		ID:        uuid.NewString(),
		Kind:      kind,
		UserID:    userID,
		Hash:      HashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := p.store.SaveToken(ctx, tok); err != nil {
		return "", fmt.Errorf("save %s token: %w", kind, err)
	}
	return raw, nil
}

func (p *LocalProvider) lookup(ctx context.Context, raw string, kind TokenKind) (*Token, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	tok, err := p.store.TokenByHash(ctx, HashToken(raw))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if tok.Kind != kind || tok.Expired(p.now()) {
		return nil, ErrInvalidToken
	}
	return tok, nil
}
