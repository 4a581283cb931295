package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"anon-bbs/internal/domain"
	"anon-bbs/internal/repository"
	"anon-bbs/internal/storage"
)

// BoardService applies submissions and assembles the board state.
type BoardService interface {
	Ready() error
	Submit(ctx context.Context, sub domain.Submission) (domain.Identity, error)
	Snapshot(ctx context.Context) domain.Board
}

type BoardConfig struct {
	DefaultTopic string
	// Archive is optional; when set, /clear uploads the posts before deleting them.
	Archive       storage.Service
	ArchiveBucket string
	ArchivePrefix string
	Logger        *logrus.Logger
}

type boardService struct {
	cfg   BoardConfig
	store repository.Store
	users UserService
	now   func() time.Time
}

func NewBoardService(cfg BoardConfig, store repository.Store, users UserService) BoardService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &boardService{
		cfg:   cfg,
		store: store,
		users: users,
		now:   time.Now,
	}
}

func (s *boardService) Ready() error {
	return s.store.Ready()
}

// Submit registers the poster and applies the command in the message.
// Store failures are returned for logging; the caller still renders the board.
func (s *boardService) Submit(ctx context.Context, sub domain.Submission) (domain.Identity, error) {
	if err := s.Ready(); err != nil {
		return domain.Identity{}, err
	}

	identity, userErr := s.users.EnsureUser(ctx, sub.Username, sub.Seed)
	cmdErr := s.apply(ctx, domain.ParseCommand(sub.Message), sub.Username, identity)
	return identity, errors.Join(userErr, cmdErr)
}

func (s *boardService) apply(ctx context.Context, cmd domain.Command, username string, identity domain.Identity) error {
	switch c := cmd.(type) {
	case domain.TopicChange:
		if c.Content == "" {
			return nil
		}
		if err := s.store.Topics().UpdateContent(ctx, c.Content); err != nil {
			return fmt.Errorf("change topic: %w", err)
		}
	case domain.Clear:
		s.archive(ctx)
		if err := s.store.Posts().DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear board: %w", err)
		}
	case domain.OrdinaryPost:
		post := &domain.Post{
			Username: username,
			UserID:   identity.UserID,
			Message:  c.Text,
		}
		if err := s.store.Posts().Create(ctx, post); err != nil {
			return fmt.Errorf("create post: %w", err)
		}
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
	return nil
}

// Snapshot never fails: unreadable posts become an empty list and an
// unreadable topic becomes the default topic.
func (s *boardService) Snapshot(ctx context.Context) domain.Board {
	board := domain.Board{Posts: []domain.Post{}, Topic: s.cfg.DefaultTopic}

	posts, err := s.store.Posts().ListNewestFirst(ctx)
	if err != nil {
		s.cfg.Logger.Warnf("list posts: %v", err)
	} else if posts != nil {
		board.Posts = posts
	}

	topic, err := s.store.Topics().Get(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.cfg.Logger.Warnf("get topic: %v", err)
		}
	} else {
		board.Topic = topic.Content
	}

	return board
}

type archiveDocument struct {
	ArchivedAt time.Time     `json:"archived_at"`
	Posts      []domain.Post `json:"posts"`
}

func (s *boardService) archive(ctx context.Context) {
	if s.cfg.Archive == nil || s.cfg.ArchiveBucket == "" {
		return
	}
	logger := s.cfg.Logger.WithField("bucket", s.cfg.ArchiveBucket)

	posts, err := s.store.Posts().ListNewestFirst(ctx)
	if err != nil {
		logger.Warnf("archive: list posts: %v", err)
		return
	}
	if len(posts) == 0 {
		return
	}

	now := s.now().UTC()
	body, err := json.Marshal(archiveDocument{ArchivedAt: now, Posts: posts})
	if err != nil {
		logger.Warnf("archive: encode posts: %v", err)
		return
	}

	key := path.Join(s.cfg.ArchivePrefix, fmt.Sprintf("%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()))
	location, err := s.cfg.Archive.Archive(ctx, bytes.NewReader(body), storage.ArchiveOptions{
		Bucket:      s.cfg.ArchiveBucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		logger.Errorf("archive: %v", err)
		return
	}
	logger.Infof("archived %d posts to %s", len(posts), location)
}
