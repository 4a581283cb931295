package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"anon-bbs/internal/domain"
	"anon-bbs/internal/repository"
)

const (
	usersCollection  = "users"
	postsCollection  = "posts"
	topicsCollection = "topics"

	// PostgREST refuses unfiltered deletes; this filter matches every stored post.
	allPostsFilter = "created_at=not.is.null"
)

// Store exposes the users, posts and topics collections of a REST backend.
type Store struct {
	client *Client
}

func NewStore(client *Client) *Store {
	return &Store{client: client}
}

func (s *Store) Users() repository.UserRepository   { return &userRepository{client: s.client} }
func (s *Store) Posts() repository.PostRepository   { return &postRepository{client: s.client} }
func (s *Store) Topics() repository.TopicRepository { return &topicRepository{client: s.client} }
func (s *Store) Ready() error                       { return s.client.Ready() }

var _ repository.Store = (*Store)(nil)

type userRepository struct {
	client *Client
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	res, err := r.client.Query(ctx, usersCollection, "username=eq."+url.QueryEscape(username))
	if err != nil {
		return nil, err
	}
	var users []userRow
	if err := res.Decode(&users); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(users) == 0 {
		return nil, repository.ErrNotFound
	}
	return &domain.User{
		Username:   users[0].Username,
		Role:       users[0].Role,
		HashedSeed: users[0].HashedSeed,
	}, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	res, err := r.client.Insert(ctx, usersCollection, userRow{
		Username:   user.Username,
		Role:       user.Role,
		HashedSeed: user.HashedSeed,
	})
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("insert user: %w", &StatusError{Status: res.Status, Body: string(res.Body)})
	}
	return nil
}

type userRow struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	HashedSeed string `json:"hashed_seed"`
}

type postRepository struct {
	client *Client
}

// postRow mirrors the posts collection. created_at arrives as text because
// the store may omit the offset for timestamp columns. Row keys are not read:
// their type depends on how the table was created.
type postRow struct {
	Username  string `json:"username"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (p postRow) toDomain() (domain.Post, error) {
	created, err := parseTimestamp(p.CreatedAt)
	if err != nil {
		return domain.Post{}, err
	}
	return domain.Post{
		Username:  p.Username,
		UserID:    p.UserID,
		Message:   p.Message,
		CreatedAt: created,
	}, nil
}

func (r *postRepository) ListNewestFirst(ctx context.Context) ([]domain.Post, error) {
	res, err := r.client.Query(ctx, postsCollection, "order=created_at.desc")
	if err != nil {
		return nil, err
	}
	var rows []postRow
	if err := res.Decode(&rows); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts := make([]domain.Post, 0, len(rows))
	for i, row := range rows {
		post, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("post row %d: %w", i, err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	res, err := r.client.Insert(ctx, postsCollection, postRow{
		Username: post.Username,
		UserID:   post.UserID,
		Message:  post.Message,
	})
	if err != nil {
		return err
	}
	var created []postRow
	if err := res.Decode(&created); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	if len(created) > 0 {
		stored, err := created[0].toDomain()
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		post.CreatedAt = stored.CreatedAt
	}
	return nil
}

func (r *postRepository) DeleteAll(ctx context.Context) error {
	res, err := r.client.DeleteWhere(ctx, postsCollection, allPostsFilter)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("delete posts: %w", &StatusError{Status: res.Status, Body: string(res.Body)})
	}
	return nil
}

type topicRepository struct {
	client *Client
}

func topicFilter() string {
	return "id=eq." + strconv.Itoa(domain.TopicID)
}

func (r *topicRepository) Get(ctx context.Context) (*domain.Topic, error) {
	res, err := r.client.Query(ctx, topicsCollection, topicFilter())
	if err != nil {
		return nil, err
	}
	var topics []struct {
		Content string `json:"content"`
	}
	if err := res.Decode(&topics); err != nil {
		return nil, fmt.Errorf("get topic: %w", err)
	}
	if len(topics) == 0 {
		return nil, repository.ErrNotFound
	}
	return &domain.Topic{ID: domain.TopicID, Content: topics[0].Content}, nil
}

type topicPatch struct {
	Content string `json:"content"`
}

func (r *topicRepository) UpdateContent(ctx context.Context, content string) error {
	res, err := r.client.UpdateWhere(ctx, topicsCollection, topicPatch{Content: content}, topicFilter())
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("update topic: %w", &StatusError{Status: res.Status, Body: string(res.Body)})
	}
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp reads a store timestamp; values without an offset are UTC.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}
