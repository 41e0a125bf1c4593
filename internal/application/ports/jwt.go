package ports

import (
	"context"
	"time"

	"filevault-api/internal/domain/user"
)

type Session struct {
	User  *user.User
	Token string
}

type Auth interface {
	LoginWithExternalToken(ctx context.Context, credential string) (*Session, error)
	Register(ctx context.Context, email, password, displayName string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
}

type TokenIssuer interface {
	GenerateJWT(userID, email, role string, expiresIn time.Duration) (string, error)
}
