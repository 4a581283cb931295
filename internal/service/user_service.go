package service

import (
	"context"
	"errors"
	"fmt"

	"anon-bbs/internal/domain"
	"anon-bbs/internal/repository"
)

// UserService derives pseudonymous identities and registers first-time posters.
type UserService interface {
	// EnsureUser always returns the identity for seed, even when the store fails.
	EnsureUser(ctx context.Context, username, seed string) (domain.Identity, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

// EnsureUser looks the user up by display name only; a different seed for an
// existing name is accepted without comparison. Lookup and insert are not atomic.
func (s *userService) EnsureUser(ctx context.Context, username, seed string) (domain.Identity, error) {
	identity := domain.DeriveIdentity(seed)

	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return identity, fmt.Errorf("lookup user: %w", err)
	}

	user := &domain.User{
		Username:   username,
		Role:       domain.RoleSpeaker,
		HashedSeed: identity.HashedSeed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return identity, fmt.Errorf("create user: %w", err)
	}
	return identity, nil
}
