package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anon-bbs/internal/domain"
	"anon-bbs/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bbs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewStore(db, "default topic")
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestStore_InitIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Topics().UpdateContent(ctx, "changed"))
	require.NoError(t, store.Init(ctx))

	topic, err := store.Topics().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "changed", topic.Content)
	assert.NoError(t, store.Ready())
}

func TestUserRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Users().GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, repository.ErrNotFound)

	user := &domain.User{Username: "alice", Role: domain.RoleSpeaker, HashedSeed: "h1"}
	require.NoError(t, store.Users().Create(ctx, user))
	assert.NotZero(t, user.ID)

	got, err := store.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, *user, *got)
}

func TestPostRepository_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.posts.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, store.Posts().Create(ctx, &domain.Post{Username: "a", UserID: "abcdef0", Message: msg}))
	}

	posts, err := store.Posts().ListNewestFirst(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "three", posts[0].Message)
	assert.Equal(t, "one", posts[2].Message)
	assert.True(t, posts[0].CreatedAt.Equal(base.Add(3*time.Second)))
	assert.Equal(t, "abcdef0", posts[0].UserID)

	require.NoError(t, store.Posts().DeleteAll(ctx))
	posts, err = store.Posts().ListNewestFirst(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestTopicRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	topic, err := store.Topics().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(domain.TopicID), topic.ID)
	assert.Equal(t, "default topic", topic.Content)

	require.NoError(t, store.Topics().UpdateContent(ctx, "Foo"))
	topic, err = store.Topics().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Foo", topic.Content)
}
