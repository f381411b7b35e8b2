package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"teamboard/app/auth"
	"teamboard/app/backend"
	"teamboard/app/models"
)

// Provider is an auth.Provider backed by the hosted auth API.
type Provider struct {
	conn *Conn
	now  func() time.Time
}

func NewProvider(conn *Conn) *Provider {
	return &Provider{conn: conn, now: time.Now}
}

// SignUp returns a session only when the service confirms the account
// immediately.
func (p *Provider) SignUp(ctx context.Context, in backend.SignUpParams) (*models.User, *models.Session, error) {
	q := url.Values{}
	if in.RedirectTo != "" {
		q.Set("redirect_to", in.RedirectTo)
	}
	data, err := p.conn.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		query:  q,
		body: map[string]any{
			"email":    in.Email,
			"password": in.Password,
			"data":     in.Metadata,
		},
	})
	if err != nil {
		return nil, nil, authError(err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, nil, fmt.Errorf("decode signup: %w", err)
	}
	if sess.AccessToken != "" && sess.User != nil {
		p.fillExpiry(&sess)
		return sess.User, &sess, nil
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, nil, fmt.Errorf("decode signup: %w", err)
	}
	return &user, nil, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	return p.token(ctx, "password", map[string]any{"email": email, "password": password})
}

func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	return p.token(ctx, "refresh_token", map[string]any{"refresh_token": refreshToken})
}

func (p *Provider) token(ctx context.Context, grant string, body map[string]any) (*models.Session, error) {
	data, err := p.conn.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	})
	if err != nil {
		return nil, authError(err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	p.fillExpiry(&sess)
	return &sess, nil
}

func (p *Provider) User(ctx context.Context, accessToken string) (*models.User, error) {
	data, err := p.conn.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user", bearer: accessToken})
	if err != nil {
		return nil, authError(err)
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	_, err := p.conn.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout", bearer: accessToken})
	return authError(err)
}

func (p *Provider) Recover(ctx context.Context, email, redirectTo string) error {
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	_, err := p.conn.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  q,
		body:   map[string]any{"email": email},
	})
	return authError(err)
}

func (p *Provider) fillExpiry(s *models.Session) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = p.now().Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
}

// authError maps rejected tokens to auth.ErrInvalidToken so the client
// forgets the session. Other errors keep the server's message.
func authError(err error) error {
	var be *backend.Error
	if errors.As(err, &be) && (be.Status == http.StatusUnauthorized || be.Status == http.StatusForbidden) {
		return fmt.Errorf("%w: %s", auth.ErrInvalidToken, be.Message)
	}
	return err
}

var _ auth.Provider = (*Provider)(nil)
