package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anon-bbs/internal/domain"
	"anon-bbs/internal/repository"
)

const createTopicsTable = `
CREATE TABLE IF NOT EXISTS topics (
	id INTEGER PRIMARY KEY,
	content TEXT NOT NULL
);
`

type TopicRepository struct {
	db           *sql.DB
	defaultTopic string
}

func NewTopicRepository(db *sql.DB, defaultTopic string) *TopicRepository {
	return &TopicRepository{db: db, defaultTopic: defaultTopic}
}

// Init creates the table and seeds the single topic row if it is missing.
func (r *TopicRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTopicsTable); err != nil {
		return fmt.Errorf("create topics table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO topics (id, content) VALUES (?, ?)`, domain.TopicID, r.defaultTopic); err != nil {
		return fmt.Errorf("seed topic: %w", err)
	}
	return nil
}

func (r *TopicRepository) Get(ctx context.Context) (*domain.Topic, error) {
	var topic domain.Topic
	err := r.db.QueryRowContext(ctx, `SELECT id, content FROM topics WHERE id = ?`, domain.TopicID).
		Scan(&topic.ID, &topic.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan topic: %w", err)
	}
	return &topic, nil
}

func (r *TopicRepository) UpdateContent(ctx context.Context, content string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE topics SET content = ? WHERE id = ?`, content, domain.TopicID); err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	return nil
}
