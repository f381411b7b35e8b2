package local

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"teamboard/app/auth"
	"teamboard/app/backend"
	"teamboard/app/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func decodePosts(t *testing.T, rows []backend.Row) []models.Post {
	t.Helper()
	posts := make([]models.Post, 0, len(rows))
	for _, r := range rows {
		var p models.Post
		require.NoError(t, json.Unmarshal(r, &p))
		posts = append(posts, p)
	}
	return posts
}

func TestTables(t *testing.T) {
	ctx := context.Background()
	tables := NewTables(setupTestDB(t))
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	tick := 0
	tables.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	t.Run("insert assigns id and created_at", func(t *testing.T) {
		rows, err := tables.Insert(ctx, "posts", []map[string]any{
			{"title": "first", "content": "a", "author": "Kim", "views": 0},
			{"title": "second", "content": "b", "author": "Lee", "views": 0},
		})
		require.NoError(t, err)
		posts := decodePosts(t, rows)
		require.Len(t, posts, 2)
		assert.Equal(t, int64(1), posts[0].ID)
		assert.Equal(t, int64(2), posts[1].ID)
		assert.True(t, posts[1].CreatedAt.After(posts[0].CreatedAt))
	})

	t.Run("select orders and filters", func(t *testing.T) {
		rows, err := tables.Select(ctx, "posts", backend.Query{
			Order: []backend.Order{{Column: "created_at", Ascending: false}},
		})
		require.NoError(t, err)
		posts := decodePosts(t, rows)
		assert.Equal(t, "second", posts[0].Title)
		assert.Equal(t, "first", posts[1].Title)

		rows, err = tables.Select(ctx, "posts", backend.Query{Filters: []backend.Filter{backend.Eq("id", int64(1))}})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "first", decodePosts(t, rows)[0].Title)

		rows, err = tables.Select(ctx, "posts", backend.Query{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("empty table", func(t *testing.T) {
		rows, err := tables.Select(ctx, "da_members", backend.Query{})
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("update patches matching rows", func(t *testing.T) {
		rows, err := tables.Update(ctx, "posts", map[string]any{"views": 7, "id": 99}, backend.Eq("id", 2))
		require.NoError(t, err)
		posts := decodePosts(t, rows)
		require.Len(t, posts, 1)
		assert.Equal(t, int64(2), posts[0].ID)
		assert.Equal(t, int64(7), posts[0].Views)
	})

	t.Run("invalid table", func(t *testing.T) {
		_, err := tables.Select(ctx, "bad:name", backend.Query{})
		var be *backend.Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, "42P01", be.Code)
	})
}

func TestIncrementIsAtomic(t *testing.T) {
	ctx := context.Background()
	tables := NewTables(setupTestDB(t))
	_, err := tables.Insert(ctx, "posts", []map[string]any{{"title": "hot", "views": 0}})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tables.Increment(ctx, "posts", "views", 1, backend.Eq("id", 1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rows, err := tables.Select(ctx, "posts", backend.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(workers), decodePosts(t, rows)[0].Views)
	assert.True(t, backend.CanIncrement(tables))
}

func TestAuthThroughBadger(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	client := New(db, Config{Auth: auth.Options{BcryptCost: bcrypt.MinCost}})

	_, err := client.SignUp(ctx, backend.SignUpParams{
		Email:    "kim@example.com",
		Password: "secret1",
		Metadata: models.UserMetadata{Name: "Kim"},
	})
	require.NoError(t, err)

	_, err = client.SignUp(ctx, backend.SignUpParams{Email: "kim@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)

	user, err := client.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Kim", user.DisplayName())

	// a second client on the same database restores the stored session
	restored := auth.NewClient(auth.NewLocalProvider(NewAuthStore(db), nil, auth.Options{}), NewSessionStore(db))
	defer restored.Close()
	again, err := restored.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, user.ID, again.ID)

	require.NoError(t, client.SignOut(ctx))
	again, err = restored.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)

	_, err = client.SignInWithPassword(ctx, "kim@example.com", "wrong1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = client.SignInWithPassword(ctx, "kim@example.com", "secret1")
	assert.NoError(t, err)
}

func TestAuthStoreTokens(t *testing.T) {
	ctx := context.Background()
	store := NewAuthStore(setupTestDB(t))

	tok := &auth.Token{ID: "t1", Kind: auth.TokenAccess, UserID: "u1", Hash: auth.HashToken("raw")}
	require.NoError(t, store.SaveToken(ctx, tok))
	require.NoError(t, store.SaveToken(ctx, &auth.Token{ID: "t2", Kind: auth.TokenRefresh, UserID: "u1", Hash: auth.HashToken("raw2")}))
	require.NoError(t, store.SaveToken(ctx, &auth.Token{ID: "t3", Kind: auth.TokenAccess, UserID: "u2", Hash: auth.HashToken("raw3")}))

	got, err := store.TokenByHash(ctx, auth.HashToken("raw"))
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, store.DeleteToken(ctx, "t1"))
	_, err = store.TokenByHash(ctx, auth.HashToken("raw"))
	assert.ErrorIs(t, err, auth.ErrNotFound)
	assert.NoError(t, store.DeleteToken(ctx, "t1"))

	require.NoError(t, store.DeleteUserTokens(ctx, "u1"))
	_, err = store.TokenByHash(ctx, auth.HashToken("raw2"))
	assert.ErrorIs(t, err, auth.ErrNotFound)
	_, err = store.TokenByHash(ctx, auth.HashToken("raw3"))
	assert.NoError(t, err)
}

func TestBackupRestore(t *testing.T) {
	ctx := context.Background()
	src, err := Open(t.TempDir())
	require.NoError(t, err)
	defer src.Close()
	_, err = NewTables(src).Insert(ctx, "da_members", []map[string]any{
		{"name": "정형근", "grade": "Manager", "gender": "male"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Backup(&buf))

	dst, err := Open(t.TempDir())
	require.NoError(t, err)
	defer dst.Close()
	require.NoError(t, dst.Restore(&buf))
	rows, err := NewTables(dst).Select(ctx, "da_members", backend.Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	var m models.Member
	require.NoError(t, json.Unmarshal(rows[0], &m))
	assert.Equal(t, "정형근", m.Name)

	require.NoError(t, dst.Clear())
	rows, err = NewTables(dst).Select(ctx, "da_members", backend.Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
