package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

type (
	ID   uint64
	UUID = uuid.UUID
	User struct {
		ID           ID
		UUID         UUID
		ExternalID   *string
		DisplayName  string
		Email        string
		Role         Role
		PasswordHash *string
		Blocked      bool

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	Users []*User
)
