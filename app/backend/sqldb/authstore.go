package sqldb

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"teamboard/app/auth"
)

// AuthStore keeps accounts and tokens in the auth_accounts and auth_tokens
// tables.
type AuthStore struct {
	db *DB
}

func NewAuthStore(db *DB) *AuthStore {
	return &AuthStore{db: db}
}

const accountColumns = "id, email, password_hash, metadata, confirmed_at, created_at, updated_at"

func (s *AuthStore) CreateAccount(ctx context.Context, a *auth.Account) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}
	query := rebind(s.db.d, "INSERT INTO auth_accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)")
	_, err = s.db.ExecContext(ctx, query,
		a.ID, a.Email, string(a.PasswordHash), string(meta), nullTime(a.ConfirmedAt), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		err = translate(err)
		if isUniqueViolation(err) {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *AuthStore) AccountByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return s.account(ctx, "email", email)
}

func (s *AuthStore) AccountByID(ctx context.Context, id string) (*auth.Account, error) {
	return s.account(ctx, "id", id)
}

func (s *AuthStore) account(ctx context.Context, column, value string) (*auth.Account, error) {
	query := rebind(s.db.d, "SELECT "+accountColumns+" FROM auth_accounts WHERE "+column+" = ?")
	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, auth.ErrNotFound
	}
	var (
		a         auth.Account
		hash      string
		meta      string
		confirmed sql.NullTime
	)
	if err := rows.Scan(&a.ID, &a.Email, &hash, &meta, &confirmed, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.PasswordHash = []byte(hash)
	if err := json.Unmarshal([]byte(meta), &a.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if confirmed.Valid {
		t := confirmed.Time.UTC()
		a.ConfirmedAt = &t
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func (s *AuthStore) UpdateAccount(ctx context.Context, a *auth.Account) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}
	query := rebind(s.db.d, "UPDATE auth_accounts SET password_hash = ?, metadata = ?, confirmed_at = ?, updated_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, string(a.PasswordHash), string(meta), nullTime(a.ConfirmedAt), a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", translate(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *AuthStore) SaveToken(ctx context.Context, t *auth.Token) error {
	query := rebind(s.db.d, "INSERT INTO auth_tokens (id, kind, user_id, hash, created_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, t.ID, string(t.Kind), t.UserID, hex.EncodeToString(t.Hash), t.CreatedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save token: %w", translate(err))
	}
	return nil
}

func (s *AuthStore) TokenByHash(ctx context.Context, hash []byte) (*auth.Token, error) {
	query := rebind(s.db.d, "SELECT id, kind, user_id, created_at, expires_at FROM auth_tokens WHERE hash = ?")
	var (
		t    auth.Token
		kind string
	)
	err := s.db.QueryRowContext(ctx, query, hex.EncodeToString(hash)).
		Scan(&t.ID, &kind, &t.UserID, &t.CreatedAt, &t.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	t.Kind = auth.TokenKind(kind)
	t.Hash = hash
	return &t, nil
}

func (s *AuthStore) DeleteToken(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, rebind(s.db.d, "DELETE FROM auth_tokens WHERE id = ?"), id)
	return translate(err)
}

func (s *AuthStore) DeleteUserTokens(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, rebind(s.db.d, "DELETE FROM auth_tokens WHERE user_id = ?"), userID)
	return translate(err)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ auth.Store = (*AuthStore)(nil)
