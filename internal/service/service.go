package service

import (
	"context"
	"errors"

	"invito/internal/model"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrRefCodeNotFound  = errors.New("referral code not found")
	ErrAlreadyExists    = errors.New("user with that email or user name already exists")
	ErrUserNameTooShort = errors.New("user name must be at least 3 characters long")
)

type UserServiceI interface {
	Register(ctx context.Context, userName, email string, refCode *string) (*model.User, error)
	ListUsers(ctx context.Context, page, limit int) ([]*model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, userName, email *string) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByRefCode(ctx context.Context, refCode string) (*model.User, error)
	IncrementReferralCount(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, limit, offset int) ([]*model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, userName, email *string) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// EventPublisher receives the registration event after a successful
// insert. Publication is fire-and-forget: it must never fail the
// registration that produced the event.
type EventPublisher interface {
	Publish(event model.RegistrationEvent)
}
