package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backendmock "teamboard/app/backend/mock"
	"teamboard/app/repositories"
)

func TestCheckConnection(t *testing.T) {
	ctx := context.Background()
	be := backendmock.New()
	defer be.Close()

	require.NoError(t, CheckConnection(ctx, be))
	assert.Equal(t, 1, be.Calls(backendmock.OpSelect))

	be.FailNext(backendmock.OpSelect, errors.New("connection refused"))
	assert.EqualError(t, CheckConnection(ctx, be), "connection refused")
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	be := backendmock.New()
	defer be.Close()
	members := NewMemberService(repositories.NewMemberRepository(be))
	posts := NewPostService(repositories.NewPostRepository(be))

	m, p, err := Seed(ctx, members, posts)
	require.NoError(t, err)
	assert.Equal(t, 4, m)
	assert.Equal(t, 5, p)

	board, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, board, 5)
	assert.Equal(t, "첫 번째 게시글입니다", board[0].Title)
	assert.Equal(t, "2024년 1분기 목표 설정", board[4].Title)
	for _, post := range board {
		assert.Zero(t, post.Views)
	}

	be.FailNext(backendmock.OpInsert, errors.New("disk full"))
	_, _, err = Seed(ctx, members, posts)
	assert.EqualError(t, err, "disk full")
}
