package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anon-bbs/internal/domain"
	"anon-bbs/internal/repository"
	"anon-bbs/internal/storage"
)

// --- fakes ---

type fakeUsers struct {
	users     map[string]domain.User
	getErr    error
	createErr error
	creates   int
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.users[user.Username] = *user
	return nil
}

type fakePosts struct {
	posts     []domain.Post // newest first
	listErr   error
	createErr error
	deletes   int
}

func (f *fakePosts) ListNewestFirst(context.Context) ([]domain.Post, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Post(nil), f.posts...), nil
}

func (f *fakePosts) Create(_ context.Context, post *domain.Post) error {
	if f.createErr != nil {
		return f.createErr
	}
	post.CreatedAt = time.Now().UTC()
	f.posts = append([]domain.Post{*post}, f.posts...)
	return nil
}

func (f *fakePosts) DeleteAll(context.Context) error {
	f.deletes++
	f.posts = nil
	return nil
}

type fakeTopics struct {
	topic   *domain.Topic
	getErr  error
	updates int
}

func (f *fakeTopics) Get(context.Context) (*domain.Topic, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.topic == nil {
		return nil, repository.ErrNotFound
	}
	t := *f.topic
	return &t, nil
}

func (f *fakeTopics) UpdateContent(_ context.Context, content string) error {
	f.updates++
	f.topic = &domain.Topic{ID: domain.TopicID, Content: content}
	return nil
}

type fakeStore struct {
	users    *fakeUsers
	posts    *fakePosts
	topics   *fakeTopics
	readyErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  &fakeUsers{users: map[string]domain.User{}},
		posts:  &fakePosts{},
		topics: &fakeTopics{topic: &domain.Topic{ID: domain.TopicID, Content: "initial"}},
	}
}

func (f *fakeStore) Users() repository.UserRepository   { return f.users }
func (f *fakeStore) Posts() repository.PostRepository   { return f.posts }
func (f *fakeStore) Topics() repository.TopicRepository { return f.topics }
func (f *fakeStore) Ready() error                       { return f.readyErr }

type fakeArchive struct {
	opts []storage.ArchiveOptions
	body []string
	err  error
}

func (f *fakeArchive) Archive(_ context.Context, body io.Reader, opts storage.ArchiveOptions) (string, error) {
	raw, _ := io.ReadAll(body)
	f.opts = append(f.opts, opts)
	f.body = append(f.body, string(raw))
	if f.err != nil {
		return "", f.err
	}
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newBoard(store *fakeStore, archive storage.Service) BoardService {
	return NewBoardService(BoardConfig{
		DefaultTopic:  "default",
		Archive:       archive,
		ArchiveBucket: "bucket",
		ArchivePrefix: "bbs-archive",
		Logger:        quietLogger(),
	}, store, NewUserService(store.users))
}

// --- tests ---

func TestSubmit_OrdinaryPost(t *testing.T) {
	store := newFakeStore()
	board := newBoard(store, nil)

	identity, err := board.Submit(context.Background(), domain.Submission{Username: "alice", Seed: "s", Message: " hi\nthere "})
	require.NoError(t, err)

	require.Len(t, store.posts.posts, 1)
	post := store.posts.posts[0]
	assert.Equal(t, "alice", post.Username)
	assert.Equal(t, identity.UserID, post.UserID)
	assert.Equal(t, domain.DeriveIdentity("s").UserID, post.UserID)
	assert.Equal(t, " hi\nthere ", post.Message)
}

func TestSubmit_TopicChange(t *testing.T) {
	store := newFakeStore()
	board := newBoard(store, nil)

	_, err := board.Submit(context.Background(), domain.Submission{Username: "a", Seed: "s", Message: "/topic Foo"})
	require.NoError(t, err)

	assert.Equal(t, "Foo", store.topics.topic.Content)
	assert.Empty(t, store.posts.posts)
}

func TestSubmit_EmptyTopicIsDropped(t *testing.T) {
	store := newFakeStore()
	board := newBoard(store, nil)

	_, err := board.Submit(context.Background(), domain.Submission{Username: "a", Seed: "s", Message: "/topic   "})
	require.NoError(t, err)

	assert.Equal(t, 0, store.topics.updates)
	assert.Equal(t, "initial", store.topics.topic.Content)
	assert.Empty(t, store.posts.posts)
}

func TestSubmit_Clear(t *testing.T) {
	store := newFakeStore()
	archive := &fakeArchive{}
	board := newBoard(store, archive)
	ctx := context.Background()

	for _, msg := range []string{"one", "two"} {
		_, err := board.Submit(ctx, domain.Submission{Username: "a", Seed: "s", Message: msg})
		require.NoError(t, err)
	}

	_, err := board.Submit(ctx, domain.Submission{Username: "a", Seed: "s", Message: "/clear"})
	require.NoError(t, err)
	assert.Empty(t, store.posts.posts)
	assert.Equal(t, 1, store.posts.deletes)

	require.Len(t, archive.opts, 1)
	assert.Equal(t, "bucket", archive.opts[0].Bucket)
	assert.True(t, strings.HasPrefix(archive.opts[0].Key, "bbs-archive/"))
	assert.True(t, strings.HasSuffix(archive.opts[0].Key, ".json"))

	var doc archiveDocument
	require.NoError(t, json.Unmarshal([]byte(archive.body[0]), &doc))
	require.Len(t, doc.Posts, 2)
	assert.Equal(t, "two", doc.Posts[0].Message)

	_, err = board.Submit(ctx, domain.Submission{Username: "a", Seed: "s", Message: "after"})
	require.NoError(t, err)
	snapshot := board.Snapshot(ctx)
	require.Len(t, snapshot.Posts, 1)
	assert.Equal(t, "after", snapshot.Posts[0].Message)
}

func TestSubmit_ClearProceedsWhenArchiveFails(t *testing.T) {
	store := newFakeStore()
	store.posts.posts = []domain.Post{{Username: "a", Message: "x"}}
	board := newBoard(store, &fakeArchive{err: errors.New("s3 down")})

	_, err := board.Submit(context.Background(), domain.Submission{Message: "/clear"})
	require.NoError(t, err)
	assert.Empty(t, store.posts.posts)
}

func TestSubmit_ClearSkipsArchiveForEmptyBoard(t *testing.T) {
	store := newFakeStore()
	archive := &fakeArchive{}
	board := newBoard(store, archive)

	_, err := board.Submit(context.Background(), domain.Submission{Message: "/clear"})
	require.NoError(t, err)
	assert.Empty(t, archive.opts)
}

func TestSubmit_NotConfigured(t *testing.T) {
	store := newFakeStore()
	store.readyErr = repository.ErrNotConfigured
	board := newBoard(store, nil)

	_, err := board.Submit(context.Background(), domain.Submission{Username: "a", Message: "hi"})
	require.ErrorIs(t, err, repository.ErrNotConfigured)
	assert.Empty(t, store.posts.posts)
	assert.Equal(t, 0, store.users.creates)
}

func TestSubmit_StoreErrorsAreReportedNotFatal(t *testing.T) {
	store := newFakeStore()
	store.users.getErr = errors.New("users unavailable")
	board := newBoard(store, nil)

	identity, err := board.Submit(context.Background(), domain.Submission{Username: "a", Seed: "s", Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, domain.DeriveIdentity("s"), identity)
	assert.Len(t, store.posts.posts, 1)
}

func TestSnapshot_Degrades(t *testing.T) {
	store := newFakeStore()
	store.posts.listErr = errors.New("bad json")
	store.topics.getErr = errors.New("timeout")
	board := newBoard(store, nil)

	snapshot := board.Snapshot(context.Background())
	assert.NotNil(t, snapshot.Posts)
	assert.Empty(t, snapshot.Posts)
	assert.Equal(t, "default", snapshot.Topic)
}

func TestSnapshot_MissingTopicUsesDefault(t *testing.T) {
	store := newFakeStore()
	store.topics.topic = nil
	board := newBoard(store, nil)

	assert.Equal(t, "default", board.Snapshot(context.Background()).Topic)
}
