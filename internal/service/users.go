package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invito/internal/model"
	"invito/internal/repository"
	"invito/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type UserService struct {
	repo   UserRepository
	events EventPublisher
}

func NewUserService(repo UserRepository, events EventPublisher) *UserService {
	return &UserService{
		repo:   repo,
		events: events,
	}
}

// Register runs the registration pipeline: validate the name, resolve
// and credit the referrer, generate a fresh referral code, insert the
// user and publish the event. A bad referral code aborts before any
// row is written; a failed credit does not.
func (s *UserService) Register(ctx context.Context, userName, email string, refCode *string) (*model.User, error) {
	// Name length is checked before the referrer is touched so a
	// rejected registration leaves no side effects.
	code, err := generateRefCode(userName)
	if err != nil {
		return nil, err
	}

	// Any supplied code is resolved as-is, empty string included; only
	// an absent field means "no referral".
	if refCode != nil {
		referrer, err := s.repo.GetUserByRefCode(ctx, *refCode)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrRefCodeNotFound
			}
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		}

		if err := s.repo.IncrementReferralCount(ctx, referrer.ID); err != nil {
			// Best effort: the registration proceeds without the credit.
			logger.Logger().Error("failed to credit referrer",
				zap.String("ref_code", *refCode),
				zap.Error(err))
		}
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:             uuid.New(),
		UserName:       userName,
		Email:          email,
		RefCode:        code,
		AddedByRefCode: 0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.events.Publish(model.RegistrationEvent{User: *user})

	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int) ([]*model.User, error) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	offset := (page - 1) * limit

	users, err := s.repo.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, userName, email *string) (*model.User, error) {
	user, err := s.repo.UpdateUser(ctx, id, userName, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
