package user

import (
	"context"
	"errors"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrNotFound           = errors.New("user not found")
)

// Repository fetch methods return (nil, nil) when no row matches.
type Repository interface {
	FetchUserByID(ctx context.Context, uuid UUID) (*User, error)
	FetchUserByEmail(ctx context.Context, email string) (*User, error)
	FetchUserByExternalID(ctx context.Context, externalID string) (*User, error)
	FetchUsers(ctx context.Context, page int) (Users, error)
	CreateUser(ctx context.Context, req User) (*User, error)
	LinkExternalID(ctx context.Context, uuid UUID, externalID string) (*User, error)
	UpdateProfile(ctx context.Context, uuid UUID, displayName string) (*User, error)
	SetBlocked(ctx context.Context, uuid UUID, blocked bool) (*User, error)
	SetRole(ctx context.Context, uuid UUID, role Role) (*User, error)
	FetchInternalID(ctx context.Context, uuid UUID) (ID, error)
	DeleteUser(ctx context.Context, id ID) (*User, error)
}
