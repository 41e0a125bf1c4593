// Package google verifies Google Sign-In ID tokens against Google's published JWKS.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"filevault-api/config"
	"filevault-api/internal/application/ports"
)

const (
	jwksRefreshInterval = time.Hour
	jwksClientTimeout   = 10 * time.Second
	clockLeeway         = 30 * time.Second
)

var (
	ErrInvalidIssuer  = errors.New("invalid issuer")
	ErrMissingSubject = errors.New("missing subject")

	validIssuers = map[string]struct{}{
		"accounts.google.com":         {},
		"https://accounts.google.com": {},
	}
)

type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

type Verifier struct {
	keys     keyfunc.Keyfunc
	clientID string
	logger   *zap.Logger
}

func New(ctx context.Context, logger *zap.Logger, cfg config.Google) (*Verifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: jwksClientTimeout},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           jwksRefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("google jwks refresh failed", zap.String("url", cfg.JWKSURL), zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("google jwks storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("google keyfunc: %w", err)
	}

	return NewWithKeyfunc(k, cfg.ClientID, logger), nil
}

// NewWithKeyfunc is used by tests to inject a static key set.
func NewWithKeyfunc(k keyfunc.Keyfunc, clientID string, logger *zap.Logger) *Verifier {
	return &Verifier{
		keys:     k,
		clientID: clientID,
		logger:   logger,
	}
}

func (v *Verifier) Verify(ctx context.Context, rawToken string) (*ports.ExternalIdentity, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(rawToken, claims, v.keys.KeyfuncCtx(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
	)
	if err != nil {
		return nil, err
	}

	if _, ok := validIssuers[claims.Issuer]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIssuer, claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return &ports.ExternalIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}
