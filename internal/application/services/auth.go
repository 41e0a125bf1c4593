package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"filevault-api/internal/application/apperr"
	"filevault-api/internal/application/ports"
	"filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/metrics"
	"filevault-api/internal/infrastructure/mq"
	dto "filevault-api/internal/interface/api/rest/dto/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingEmail       = errors.New("identity token carries no email")
)

type AuthService struct {
	logger         *zap.Logger
	jwtService     ports.TokenIssuer
	verifier       ports.IdentityVerifier
	userRepository user.Repository
	events         ports.EventPublisher
	metrics        *metrics.Metrics
	sessionTTL     time.Duration
	bcryptCost     int
	compareHash    func(hash, password []byte) error

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(
	logger *zap.Logger,
	jwtService ports.TokenIssuer,
	verifier ports.IdentityVerifier,
	userRepository user.Repository,
	events ports.EventPublisher,
	m *metrics.Metrics,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		logger:         logger,
		jwtService:     jwtService,
		verifier:       verifier,
		userRepository: userRepository,
		events:         events,
		metrics:        m,
		sessionTTL:     sessionTTL,
		bcryptCost:     bcrypt.DefaultCost,
		compareHash:    bcrypt.CompareHashAndPassword,
	}
}

var _ ports.Auth = (*AuthService)(nil)

// LoginWithExternalToken signs in with a Google ID token. An unknown subject is linked to
// an existing account with the same verified email, or gets a new account.
func (as *AuthService) LoginWithExternalToken(ctx context.Context, credential string) (*ports.Session, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, apperr.InvalidToken("invalid token", nil)
	}

	id, err := as.verifier.Verify(ctx, credential)
	if err != nil {
		as.logger.Info("external token rejected", zap.Error(err))
		return nil, apperr.InvalidToken("invalid token", err)
	}

	u, err := as.userRepository.FetchUserByExternalID(ctx, id.Subject)
	if err != nil {
		return nil, apperr.Persistence("failed to fetch user", err)
	}
	if u == nil {
		u, err = as.upsertExternal(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	return as.session(u)
}

func (as *AuthService) upsertExternal(ctx context.Context, id *ports.ExternalIdentity) (*user.User, error) {
	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, apperr.InvalidToken("invalid token", ErrMissingEmail)
	}

	existing, err := as.userRepository.FetchUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Persistence("failed to fetch user", err)
	}
	if existing != nil {
		if !id.EmailVerified {
			return nil, apperr.Conflict("email already registered", nil)
		}
		u, err := as.userRepository.LinkExternalID(ctx, existing.UUID, id.Subject)
		if err != nil {
			return nil, apperr.Persistence("failed to link account", err)
		}
		as.logger.Info("external identity linked", zap.String("user", u.UUID.String()))
		return u, nil
	}

	name := strings.TrimSpace(id.Name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	subject := id.Subject

	u, err := as.create(ctx, user.User{
		ExternalID:  &subject,
		DisplayName: name,
		Email:       email,
		Role:        user.RoleUser,
	})
	if errors.Is(err, user.ErrEmailAlreadyExists) {
		// a concurrent first sign-in with the same subject won the insert
		winner, ferr := as.userRepository.FetchUserByExternalID(ctx, subject)
		if ferr != nil {
			return nil, apperr.Persistence("failed to fetch user", ferr)
		}
		if winner != nil {
			return winner, nil
		}
	}

	return u, err
}

func (as *AuthService) Register(ctx context.Context, email, password, displayName string) (*ports.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.bcryptCost)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}
	h := string(hash)

	u, err := as.create(ctx, user.User{
		DisplayName:  strings.TrimSpace(displayName),
		Email:        normalizeEmail(email),
		Role:         user.RoleUser,
		PasswordHash: &h,
	})
	if err != nil {
		return nil, err
	}

	return as.session(u)
}

func (as *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, error) {
	u, err := as.userRepository.FetchUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, apperr.Persistence("failed to fetch user", err)
	}
	if u == nil || u.PasswordHash == nil {
		// same bcrypt work as a wrong password, so timing does not reveal accounts
		_ = as.compareHash(as.dummyPasswordHash(), []byte(password))
		return nil, apperr.InvalidToken("invalid credentials", ErrInvalidCredentials)
	}
	if err = as.compareHash([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.InvalidToken("invalid credentials", ErrInvalidCredentials)
	}

	return as.session(u)
}

func (as *AuthService) dummyPasswordHash() []byte {
	as.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("filevault-no-such-account"), as.bcryptCost)
		if err != nil {
			as.logger.Error("dummy password hash", zap.Error(err))
			return
		}
		as.dummyHash = h
	})
	return as.dummyHash
}

func (as *AuthService) create(ctx context.Context, req user.User) (*user.User, error) {
	u, err := as.userRepository.CreateUser(ctx, req)
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, apperr.Conflict("email already registered", err)
		}
		return nil, apperr.Persistence("failed to create user", err)
	}

	as.events.Emit(mq.NewEvent(mq.RoutingUserCreated, u.UUID.String(), dto.ToResponseUser(*u)))
	as.metrics.Counter.WithLabelValues("user_created_total").Inc()

	return u, nil
}

func (as *AuthService) session(u *user.User) (*ports.Session, error) {
	if u.Blocked {
		return nil, apperr.Forbidden("user is blocked")
	}

	token, err := as.jwtService.GenerateJWT(u.UUID.String(), u.Email, string(u.Role), as.sessionTTL)
	if err != nil {
		return nil, apperr.Internal("failed to generate token", err)
	}

	return &ports.Session{User: u, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
