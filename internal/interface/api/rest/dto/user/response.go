package user

import (
	"time"

	"github.com/google/uuid"
)

type (
	User struct {
		UUID        uuid.UUID `json:"uuid"`
		Email       string    `json:"email"`
		DisplayName string    `json:"display_name"`
		Role        string    `json:"role"`
		Blocked     bool      `json:"blocked"`
		CreatedAt   time.Time `json:"created_at"`
	}
	Users        []User
	ResponseData struct {
		Data Users `json:"data"`
	}
)
