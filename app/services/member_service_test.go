package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamboard/app/backend"
	backendmock "teamboard/app/backend/mock"
	"teamboard/app/models"
	"teamboard/app/repositories"
)

func setupMembers(t *testing.T) (*MemberService, *backendmock.Client) {
	t.Helper()
	be := backendmock.New()
	t.Cleanup(func() { be.Close() })
	return NewMemberService(repositories.NewMemberRepository(be)), be
}

func TestMemberService(t *testing.T) {
	ctx := context.Background()
	svc, be := setupMembers(t)

	t.Run("empty table is not an error", func(t *testing.T) {
		members, err := svc.List(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, members)
		assert.Empty(t, members)
	})

	t.Run("added member is listed newest first", func(t *testing.T) {
		inputs := []models.MemberInput{
			{Name: "Kim", Grade: models.GradeAnalyst, Gender: models.GenderFemale},
			{Name: "  Lee  ", Grade: models.GradePartner, Gender: models.GenderMale},
			{Name: "Park", Grade: models.GradeSM, Gender: models.GenderFemale},
		}
		for _, in := range inputs {
			m, err := svc.Add(ctx, in)
			require.NoError(t, err)
			assert.NotZero(t, m.ID)
			assert.False(t, m.CreatedAt.IsZero())

			members, err := svc.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, m.ID, members[0].ID)
			for i := 1; i < len(members); i++ {
				assert.False(t, members[i].CreatedAt.After(members[i-1].CreatedAt))
			}
		}
		members, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Lee", members[1].Name, "name is trimmed")
	})

	t.Run("add many keeps backend order", func(t *testing.T) {
		before := be.Calls(backendmock.OpInsert)
		members, err := svc.AddMany(ctx, SeedMembers())
		require.NoError(t, err)
		require.Len(t, members, 4)
		assert.Equal(t, []string{"정형근", "이범승", "조하늘", "양성수"},
			[]string{members[0].Name, members[1].Name, members[2].Name, members[3].Name})
		assert.Equal(t, before+1, be.Calls(backendmock.OpInsert))
	})

	t.Run("get", func(t *testing.T) {
		m, err := svc.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Kim", m.Name)

		m, err = svc.Get(ctx, 404)
		assert.Nil(t, m)
		assert.EqualError(t, err, "member not found")
	})
}

func TestMemberServiceValidation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		input   models.MemberInput
		message string
	}{
		{"empty name", models.MemberInput{Name: "", Grade: models.GradeManager, Gender: models.GenderMale}, "name is required"},
		{"blank name", models.MemberInput{Name: "   ", Grade: models.GradeManager, Gender: models.GenderMale}, "name is required"},
		{"unknown grade", models.MemberInput{Name: "Kim", Grade: "Intern", Gender: models.GenderMale}, "grade must be one of: Manager Partner SM Associate Analyst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, be := setupMembers(t)
			m, err := svc.Add(ctx, tt.input)
			assert.Nil(t, m)
			assert.EqualError(t, err, tt.message)
			assert.True(t, IsValidation(err))
			assert.Equal(t, 0, be.TotalCalls(), "no backend request is made")
		})
	}

	t.Run("one bad member blocks the batch", func(t *testing.T) {
		svc, be := setupMembers(t)
		members, err := svc.AddMany(ctx, []models.MemberInput{
			{Name: "Kim", Grade: models.GradeManager, Gender: models.GenderMale},
			{Name: "", Grade: models.GradeManager, Gender: models.GenderMale},
		})
		assert.EqualError(t, err, "member 2: name is required")
		assert.NotNil(t, members)
		assert.Empty(t, members)
		assert.Equal(t, 0, be.TotalCalls())
	})
}

func TestMemberServiceFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("backend message passes through", func(t *testing.T) {
		svc, be := setupMembers(t)
		be.FailNext(backendmock.OpSelect, &backend.Error{Status: 503, Message: "service unavailable"})
		members, err := svc.List(ctx)
		assert.NotNil(t, members)
		assert.Empty(t, members)
		var se *Error
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "service unavailable", se.Message)
		assert.Equal(t, "list members", se.Op)
	})

	t.Run("constraint violation on insert", func(t *testing.T) {
		svc, be := setupMembers(t)
		be.FailNext(backendmock.OpInsert, &backend.Error{Code: "23514", Message: `new row violates check constraint "da_members_grade_check"`})
		m, err := svc.Add(ctx, models.MemberInput{Name: "Kim", Grade: models.GradeManager, Gender: models.GenderMale})
		assert.Nil(t, m)
		assert.EqualError(t, err, `new row violates check constraint "da_members_grade_check"`)
	})

	t.Run("panic becomes generic error", func(t *testing.T) {
		svc, be := setupMembers(t)
		be.PanicNext(backendmock.OpSelect, "nil map")
		members, err := svc.List(ctx)
		assert.NotNil(t, members)
		assert.Empty(t, members)
		assert.EqualError(t, err, UnexpectedMessage)
	})

	t.Run("plain errors keep their text", func(t *testing.T) {
		svc, be := setupMembers(t)
		be.FailNext(backendmock.OpInsert, errors.New("dial tcp: connection refused"))
		_, err := svc.AddMany(ctx, SeedMembers())
		assert.EqualError(t, err, "dial tcp: connection refused")
	})
}
