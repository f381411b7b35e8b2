package services

import (
	"context"
	"errors"
	"fmt"

	"teamboard/app/models"
	"teamboard/app/repositories"
)

// MemberService handles the member roster.
type MemberService struct {
	repo repositories.MemberRepository
}

// NewMemberService creates a new MemberService
func NewMemberService(repo repositories.MemberRepository) *MemberService {
	return &MemberService{repo: repo}
}

// List returns all members, newest first.
func (s *MemberService) List(ctx context.Context) (members []models.Member, err error) {
	defer func() {
		if err != nil {
			members = []models.Member{}
		}
	}()
	defer recoverTo("list members", &err)

	members, err = s.repo.List(ctx)
	if err != nil {
		return nil, fail("list members", err)
	}
	return members, nil
}

// Add validates and inserts one member.
func (s *MemberService) Add(ctx context.Context, in models.MemberInput) (member *models.Member, err error) {
	defer recoverTo("add member", &err)

	if err := in.Validate(); err != nil {
		return nil, fail("add member", err)
	}
	member, err = s.repo.Create(ctx, in)
	if err != nil {
		return nil, fail("add member", err)
	}
	return member, nil
}

// AddMany inserts all members in one request. Nothing is sent when any input
// is invalid.
func (s *MemberService) AddMany(ctx context.Context, in []models.MemberInput) (members []models.Member, err error) {
	defer func() {
		if err != nil {
			members = []models.Member{}
		}
	}()
	defer recoverTo("add members", &err)

	for i := range in {
		if err := in[i].Validate(); err != nil {
			return nil, &Error{Op: "add members", Message: fmt.Sprintf("member %d: %s", i+1, err), Err: err}
		}
	}
	if len(in) == 0 {
		return []models.Member{}, nil
	}
	members, err = s.repo.CreateMany(ctx, in)
	if err != nil {
		return nil, fail("add members", err)
	}
	return members, nil
}

// Get returns one member.
func (s *MemberService) Get(ctx context.Context, id int64) (member *models.Member, err error) {
	defer recoverTo("get member", &err)

	member, err = s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, &Error{Op: "get member", Message: "member not found", Err: err}
	}
	if err != nil {
		return nil, fail("get member", err)
	}
	return member, nil
}
