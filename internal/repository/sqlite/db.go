package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"anon-bbs/internal/repository"
)

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// a single writer keeps sqlite from returning SQLITE_BUSY under concurrent requests
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// Store serves the board collections from a local sqlite database.
type Store struct {
	users  *UserRepository
	posts  *PostRepository
	topics *TopicRepository
}

func NewStore(db *sql.DB, defaultTopic string) *Store {
	return &Store{
		users:  NewUserRepository(db),
		posts:  NewPostRepository(db),
		topics: NewTopicRepository(db, defaultTopic),
	}
}

// Init creates missing tables and seeds the topic row.
func (s *Store) Init(ctx context.Context) error {
	if err := s.users.Init(ctx); err != nil {
		return err
	}
	if err := s.posts.Init(ctx); err != nil {
		return err
	}
	return s.topics.Init(ctx)
}

func (s *Store) Users() repository.UserRepository   { return s.users }
func (s *Store) Posts() repository.PostRepository   { return s.posts }
func (s *Store) Topics() repository.TopicRepository { return s.topics }

// Ready always succeeds; a local database needs no credentials.
func (s *Store) Ready() error { return nil }

var _ repository.Store = (*Store)(nil)
