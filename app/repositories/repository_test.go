package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamboard/app/backend"
	backendmock "teamboard/app/backend/mock"
	"teamboard/app/models"
)

type AuditLog struct{}

type Category struct{}

func TestTableName(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"override", TableName[models.Member](), "da_members"},
		{"plural", TableName[models.Post](), "posts"},
		{"snake case", TableName[AuditLog](), "audit_logs"},
		{"irregular plural", TableName[Category](), "categories"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestMemberRepository(t *testing.T) {
	ctx := context.Background()
	be := backendmock.New()
	defer be.Close()
	repo := NewMemberRepository(be)

	t.Run("empty list", func(t *testing.T) {
		members, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, members)
		assert.Empty(t, members)
	})

	t.Run("create", func(t *testing.T) {
		m, err := repo.Create(ctx, models.MemberInput{Name: "정형근", Grade: models.GradeManager, Gender: models.GenderMale})
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.ID)
		assert.Equal(t, "정형근", m.Name)
		assert.Len(t, be.Rows("da_members"), 1)
	})

	t.Run("create many in one request", func(t *testing.T) {
		before := be.Calls(backendmock.OpInsert)
		members, err := repo.CreateMany(ctx, []models.MemberInput{
			{Name: "이범승", Grade: models.GradeManager, Gender: models.GenderMale},
			{Name: "조하늘", Grade: models.GradeManager, Gender: models.GenderMale},
		})
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "이범승", members[0].Name)
		assert.Equal(t, before+1, be.Calls(backendmock.OpInsert))
	})

	t.Run("list newest first", func(t *testing.T) {
		members, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, members, 3)
		assert.Equal(t, "조하늘", members[0].Name)
		assert.Equal(t, "정형근", members[2].Name)
	})

	t.Run("get by id", func(t *testing.T) {
		m, err := repo.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, "이범승", m.Name)

		_, err = repo.GetByID(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostRepository(t *testing.T) {
	ctx := context.Background()
	be := backendmock.New()
	defer be.Close()
	repo := NewPostRepository(be)

	p, err := repo.Create(ctx, models.PostInput{Title: "t", Content: "c", Author: "Kim"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Views)
	assert.Equal(t, "0", fmt.Sprint(be.Rows("posts")[0]["views"]), "views column is written")

	p, err = repo.SetViews(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.Views)

	_, err = repo.SetViews(ctx, 99, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.AddViews(ctx, p.ID, 1)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestPostRepositoryAtomic(t *testing.T) {
	ctx := context.Background()
	be := backendmock.NewAtomic()
	defer be.Close()
	repo := NewPostRepository(be)

	p, err := repo.Create(ctx, models.PostInput{Title: "t", Content: "c", Author: "Kim"})
	require.NoError(t, err)
	p, err = repo.AddViews(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Views)
	assert.Equal(t, 1, be.Calls(backendmock.OpIncrement))
}

func TestNewestFirstBreaksTies(t *testing.T) {
	ctx := context.Background()
	be := backendmock.New()
	defer be.Close()

	same := "2024-03-01T09:00:00Z"
	_, err := be.Insert(ctx, "da_members", []map[string]any{
		{"name": "A", "grade": "Manager", "gender": "Male", "created_at": same},
		{"name": "B", "grade": "Manager", "gender": "Male", "created_at": same},
		{"name": "C", "grade": "Manager", "gender": "Male", "created_at": same},
	})
	require.NoError(t, err)
	_, err = be.Insert(ctx, "posts", []map[string]any{
		{"title": "first", "content": "x", "author": "A", "views": 0, "created_at": same},
		{"title": "second", "content": "x", "author": "A", "views": 0, "created_at": same},
	})
	require.NoError(t, err)

	members, err := NewMemberRepository(be).List(ctx)
	require.NoError(t, err)
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"C", "B", "A"}, names)

	posts, err := NewPostRepository(be).List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Title)
	assert.Equal(t, "first", posts[1].Title)
}

func TestBackendErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	be := backendmock.New()
	defer be.Close()
	be.FailNext(backendmock.OpSelect, &backend.Error{Status: 401, Message: "JWT expired"})

	_, err := NewPostRepository(be).List(ctx)
	var bErr *backend.Error
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "JWT expired", bErr.Message)
}
