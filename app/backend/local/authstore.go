package local

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/dgraph-io/badger/v4"

	"teamboard/app/auth"
	"teamboard/app/models"
)

const (
	accountPrefix    = "auth:account:"
	emailPrefix      = "auth:email:"
	tokenPrefix      = "auth:token:"
	tokenIDPrefix    = "auth:token-id:"
	clientSessionKey = "client:session"
)

// AuthStore keeps accounts and tokens for auth.LocalProvider.
type AuthStore struct {
	db *DB
}

func NewAuthStore(db *DB) *AuthStore {
	return &AuthStore{db: db}
}

func (s *AuthStore) CreateAccount(_ context.Context, a *auth.Account) error {
	return s.db.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(emailPrefix + a.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return auth.ErrEmailTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		data, err := marshalEntity(a)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(accountPrefix+a.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(a.ID))
	})
}

func (s *AuthStore) AccountByEmail(_ context.Context, email string) (*auth.Account, error) {
	var a auth.Account
	err := s.db.db.View(func(txn *badger.Txn) error {
		id, err := get(txn, []byte(emailPrefix+email))
		if err != nil {
			return err
		}
		data, err := get(txn, []byte(accountPrefix+string(id)))
		if err != nil {
			return err
		}
		return unmarshalEntity(data, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AuthStore) AccountByID(_ context.Context, id string) (*auth.Account, error) {
	var a auth.Account
	err := s.db.db.View(func(txn *badger.Txn) error {
		data, err := get(txn, []byte(accountPrefix+id))
		if err != nil {
			return err
		}
		return unmarshalEntity(data, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AuthStore) UpdateAccount(_ context.Context, a *auth.Account) error {
	return s.db.db.Update(func(txn *badger.Txn) error {
		key := []byte(accountPrefix + a.ID)
		if _, err := get(txn, key); err != nil {
			return err
		}
		data, err := marshalEntity(a)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

// SaveToken indexes the token by hash and by id.
func (s *AuthStore) SaveToken(_ context.Context, t *auth.Token) error {
	return s.db.db.Update(func(txn *badger.Txn) error {
		data, err := marshalEntity(t)
		if err != nil {
			return err
		}
		hashKey := []byte(tokenPrefix + hex.EncodeToString(t.Hash))
		if err := txn.Set(hashKey, data); err != nil {
			return err
		}
		return txn.Set([]byte(tokenIDPrefix+t.ID), hashKey)
	})
}

func (s *AuthStore) TokenByHash(_ context.Context, hash []byte) (*auth.Token, error) {
	var t auth.Token
	err := s.db.db.View(func(txn *badger.Txn) error {
		data, err := get(txn, []byte(tokenPrefix+hex.EncodeToString(hash)))
		if err != nil {
			return err
		}
		return unmarshalEntity(data, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *AuthStore) DeleteToken(_ context.Context, id string) error {
	return s.db.db.Update(func(txn *badger.Txn) error {
		return deleteToken(txn, id)
	})
}

func (s *AuthStore) DeleteUserTokens(_ context.Context, userID string) error {
	return s.db.db.Update(func(txn *badger.Txn) error {
		var ids []string
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		prefix := []byte(tokenPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var t auth.Token
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &t)
			})
			if err != nil {
				it.Close()
				return err
			}
			if t.UserID == userID {
				ids = append(ids, t.ID)
			}
		}
		it.Close()
		for _, id := range ids {
			if err := deleteToken(txn, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteToken(txn *badger.Txn, id string) error {
	idKey := []byte(tokenIDPrefix + id)
	hashKey, err := get(txn, idKey)
	if errors.Is(err, auth.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := txn.Delete(hashKey); err != nil {
		return err
	}
	return txn.Delete(idKey)
}

// get returns a copy of the value at key, or auth.ErrNotFound.
func get(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// SessionStore persists the client's session so a restart restores it.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Load(context.Context) (*models.Session, error) {
	var sess *models.Session
	err := s.db.db.View(func(txn *badger.Txn) error {
		data, err := get(txn, []byte(clientSessionKey))
		if errors.Is(err, auth.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sess = new(models.Session)
		return unmarshalEntity(data, sess)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) Save(_ context.Context, sess *models.Session) error {
	data, err := marshalEntity(sess)
	if err != nil {
		return err
	}
	return s.db.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(clientSessionKey), data)
	})
}

func (s *SessionStore) Clear(context.Context) error {
	return s.db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(clientSessionKey))
	})
}
