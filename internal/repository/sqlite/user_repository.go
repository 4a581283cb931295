package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"anon-bbs/internal/domain"
	"anon-bbs/internal/repository"
)

// username is deliberately not UNIQUE: identity is best-effort check-then-insert.
const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	role TEXT NOT NULL,
	hashed_seed TEXT NOT NULL
);
`

const createUsersIndex = `CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createUsersIndex); err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, role, hashed_seed)
VALUES (?, ?, ?)`,
		user.Username,
		user.Role,
		user.HashedSeed,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, role, hashed_seed
FROM users
WHERE username = ?
ORDER BY id
LIMIT 1`,
		username,
	)

	var user domain.User
	if err := row.Scan(&user.ID, &user.Username, &user.Role, &user.HashedSeed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
