package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/db/postgres"
)

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) user.Repository {
	return &Repository{db: db}
}

func scanUser(row pgx.Row) (*User, error) {
	u := new(User)
	err := row.Scan(
		&u.ID,
		&u.UUID,
		&u.ExternalID,
		&u.DisplayName,
		&u.Email,
		&u.Role,
		&u.PasswordHash,
		&u.Blocked,

		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// fetchOne runs a single-row query; no rows maps to (nil, nil).
func (r *Repository) fetchOne(ctx context.Context, query string, args ...any) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if postgres.IsPgUniqueViolation(err) {
			return nil, user.ErrEmailAlreadyExists
		}
		return nil, err
	}

	return fromDBModel(u), nil
}

func (r *Repository) FetchUsers(ctx context.Context, page int) (user.Users, error) {
	rows, err := r.db.Query(ctx, SelectUsers, page)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var us Users
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		us = append(us, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(&us), nil
}

func (r *Repository) FetchUserByID(ctx context.Context, uuid user.UUID) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByID, uuid.String())
}

func (r *Repository) FetchUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByEmail, email)
}

func (r *Repository) FetchUserByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	return r.fetchOne(ctx, SelectUserByExternalID, externalID)
}

func (r *Repository) CreateUser(ctx context.Context, req user.User) (*user.User, error) {
	role := req.Role
	if role == "" {
		role = user.RoleUser
	}

	u, err := r.fetchOne(ctx, InsertUser,
		req.ExternalID, req.DisplayName, req.Email, string(role), req.PasswordHash,
	)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errors.New("insert returned no row")
	}

	return u, nil
}

func (r *Repository) LinkExternalID(ctx context.Context, uuid user.UUID, externalID string) (*user.User, error) {
	return r.fetchOne(ctx, UpdateExternalIDByUUID, externalID, uuid.String())
}

func (r *Repository) UpdateProfile(ctx context.Context, uuid user.UUID, displayName string) (*user.User, error) {
	return r.fetchOne(ctx, UpdateProfileByUUID, displayName, uuid.String())
}

func (r *Repository) SetBlocked(ctx context.Context, uuid user.UUID, blocked bool) (*user.User, error) {
	return r.fetchOne(ctx, UpdateBlockedByUUID, blocked, uuid.String())
}

func (r *Repository) SetRole(ctx context.Context, uuid user.UUID, role user.Role) (*user.User, error) {
	return r.fetchOne(ctx, UpdateRoleByUUID, string(role), uuid.String())
}

func (r *Repository) FetchInternalID(ctx context.Context, uuid user.UUID) (user.ID, error) {
	var id uint64
	if err := r.db.QueryRow(ctx, SelectIdByUUID, uuid.String()).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("user uuid %s: %w", uuid.String(), user.ErrNotFound)
		}
		return 0, err
	}

	return user.ID(id), nil
}

func (r *Repository) DeleteUser(ctx context.Context, id user.ID) (*user.User, error) {
	return r.fetchOne(ctx, DeleteUserByID, uint64(id))
}
