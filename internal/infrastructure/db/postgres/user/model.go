package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	User struct {
		ID           uint64
		UUID         uuid.UUID
		ExternalID   *string
		DisplayName  string
		Email        string
		Role         string
		PasswordHash *string
		Blocked      bool

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Users []*User
)
