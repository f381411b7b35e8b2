// Package mock provides in-memory repositories for handler and service tests.
package mock

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"teamboard/app/models"
	"teamboard/app/repositories"
)

type MemberRepository struct {
	members map[int64]models.Member
	nextID  int64
	clock   time.Time
	Err     error
	mutex   sync.RWMutex
}

type PostRepository struct {
	posts  map[int64]models.Post
	nextID int64
	clock  time.Time
	Err    error
	// Atomic enables AddViews.
	Atomic bool
	mutex  sync.RWMutex
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func NewMemberRepository() *MemberRepository {
	return &MemberRepository{
		members: make(map[int64]models.Member),
		nextID:  1,
		clock:   epoch,
	}
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int64]models.Post),
		nextID: 1,
		clock:  epoch,
	}
}

// MemberRepository implementation
func (m *MemberRepository) List(context.Context) ([]models.Member, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	members := make([]models.Member, 0, len(m.members))
	for _, member := range m.members {
		members = append(members, member)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.After(members[j].CreatedAt) })
	return members, nil
}

func (m *MemberRepository) Create(ctx context.Context, in models.MemberInput) (*models.Member, error) {
	created, err := m.CreateMany(ctx, []models.MemberInput{in})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

func (m *MemberRepository) CreateMany(_ context.Context, in []models.MemberInput) ([]models.Member, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	created := make([]models.Member, 0, len(in))
	for _, input := range in {
		m.clock = m.clock.Add(time.Second)
		member := models.Member{
			ID:        m.nextID,
			CreatedAt: m.clock,
			Name:      input.Name,
			Grade:     input.Grade,
			Gender:    input.Gender,
		}
		m.nextID++
		m.members[member.ID] = member
		created = append(created, member)
	}
	return created, nil
}

func (m *MemberRepository) GetByID(_ context.Context, id int64) (*models.Member, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	member, exists := m.members[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &member, nil
}

// PostRepository implementation
func (m *PostRepository) List(context.Context) ([]models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	posts := make([]models.Post, 0, len(m.posts))
	for _, post := range m.posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (m *PostRepository) Create(_ context.Context, in models.PostInput) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	m.clock = m.clock.Add(time.Second)
	post := models.Post{
		ID:        m.nextID,
		CreatedAt: m.clock,
		Title:     in.Title,
		Content:   in.Content,
		Author:    in.Author,
	}
	m.nextID++
	m.posts[post.ID] = post
	return &post, nil
}

func (m *PostRepository) GetByID(_ context.Context, id int64) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &post, nil
}

func (m *PostRepository) SetViews(_ context.Context, id, views int64) (*models.Post, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	post.Views = views
	m.posts[id] = post
	return &post, nil
}

func (m *PostRepository) AddViews(_ context.Context, id, by int64) (*models.Post, error) {
	if !m.Atomic {
		return nil, errors.ErrUnsupported
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	post.Views += by
	m.posts[id] = post
	return &post, nil
}

var (
	_ repositories.MemberRepository = (*MemberRepository)(nil)
	_ repositories.PostRepository   = (*PostRepository)(nil)
)
