package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"filevault-api/internal/application/apperr"
	"filevault-api/internal/application/ports"
	domain "filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/metrics"
	"filevault-api/internal/infrastructure/mq"
	"filevault-api/internal/interface/api/rest/dto/user"
)

type UserService struct {
	logger         *zap.Logger
	userRepository domain.Repository
	files          ports.FileService
	events         ports.EventPublisher
	metrics        *metrics.Metrics
}

func NewUserService(
	logger *zap.Logger,
	userRepository domain.Repository,
	files ports.FileService,
	events ports.EventPublisher,
	m *metrics.Metrics,
) ports.UserService {
	return &UserService{
		logger:         logger,
		userRepository: userRepository,
		files:          files,
		events:         events,
		metrics:        m,
	}
}

func (us *UserService) FindUserByID(ctx context.Context, uuid domain.UUID) (*domain.User, error) {
	u, err := us.userRepository.FetchUserByID(ctx, uuid)
	if err != nil {
		return nil, apperr.Persistence("failed to fetch user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	return u, nil
}

func (us *UserService) FindUsers(ctx context.Context, page int) (domain.Users, error) {
	users, err := us.userRepository.FetchUsers(ctx, page)
	if err != nil {
		return nil, apperr.Persistence("failed to fetch users", err)
	}

	return users, nil
}

func (us *UserService) UpdateProfile(ctx context.Context, uuid domain.UUID, displayName string) (*domain.User, error) {
	return us.mutate(ctx, "user_updated_total", func() (*domain.User, error) {
		return us.userRepository.UpdateProfile(ctx, uuid, displayName)
	})
}

func (us *UserService) SetBlocked(ctx context.Context, uuid domain.UUID, blocked bool) (*domain.User, error) {
	return us.mutate(ctx, "user_blocked_total", func() (*domain.User, error) {
		return us.userRepository.SetBlocked(ctx, uuid, blocked)
	})
}

func (us *UserService) SetRole(ctx context.Context, uuid domain.UUID, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperr.Validation("invalid role", map[string]string{"role": "must be user or admin"})
	}
	return us.mutate(ctx, "user_role_changed_total", func() (*domain.User, error) {
		return us.userRepository.SetRole(ctx, uuid, role)
	})
}

func (us *UserService) mutate(ctx context.Context, counter string, fn func() (*domain.User, error)) (*domain.User, error) {
	u, err := fn()
	if err != nil {
		return nil, apperr.Persistence("failed to update user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}

	us.events.Emit(mq.NewEvent(mq.RoutingUserUpdated, u.UUID.String(), user.ToResponseUser(*u)))
	us.metrics.Counter.WithLabelValues(counter).Inc()

	return u, nil
}

// DeleteUser removes the user's files (blob, then row) before the user row itself.
func (us *UserService) DeleteUser(ctx context.Context, userUUID domain.UUID) error {
	id, err := us.userRepository.FetchInternalID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Persistence("failed to fetch user", err)
	}

	if err = us.files.DeleteAllForOwner(ctx, userUUID); err != nil {
		return err
	}

	u, err := us.userRepository.DeleteUser(ctx, id)
	if err != nil {
		return apperr.Persistence("failed to delete user", err)
	}
	if u != nil {
		us.events.Emit(mq.NewEvent(mq.RoutingUserDeleted, u.UUID.String(), user.ToResponseUser(*u)))
	}

	us.metrics.Counter.WithLabelValues("user_deleted_total").Inc()
	us.logger.Info("user deleted", zap.String("user", userUUID.String()))

	return nil
}
