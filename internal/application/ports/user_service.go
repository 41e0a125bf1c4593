package ports

import (
	"context"

	"filevault-api/internal/domain/user"
)

type UserService interface {
	FindUserByID(ctx context.Context, uuid user.UUID) (*user.User, error)
	FindUsers(ctx context.Context, page int) (user.Users, error)
	UpdateProfile(ctx context.Context, uuid user.UUID, displayName string) (*user.User, error)
	SetBlocked(ctx context.Context, uuid user.UUID, blocked bool) (*user.User, error)
	SetRole(ctx context.Context, uuid user.UUID, role user.Role) (*user.User, error)
	DeleteUser(ctx context.Context, uuid user.UUID) error
}
