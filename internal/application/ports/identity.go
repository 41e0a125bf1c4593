package ports

import "context"

// ExternalIdentity is the verified subject of a third-party ID token.
type ExternalIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error)
}
