package repository

import (
	"context"
	"errors"

	"anon-bbs/internal/domain"
)

var (
	// ErrNotConfigured is returned before any store call when credentials are missing.
	ErrNotConfigured = errors.New("store credentials are not configured")
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// UserRepository persists board users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

// PostRepository persists board posts.
type PostRepository interface {
	// ListNewestFirst returns every post ordered by created_at descending.
	ListNewestFirst(ctx context.Context) ([]domain.Post, error)
	Create(ctx context.Context, post *domain.Post) error
	DeleteAll(ctx context.Context) error
}

// TopicRepository reads and updates the single topic row.
type TopicRepository interface {
	Get(ctx context.Context) (*domain.Topic, error)
	UpdateContent(ctx context.Context, content string) error
}

// Store bundles the three collections of one backend.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Topics() TopicRepository
	// Ready reports configuration problems without touching the network.
	Ready() error
}
