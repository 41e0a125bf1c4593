package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"filevault-api/internal/application/apperr"
	"filevault-api/internal/application/ports"
	"filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/jwt"
	"filevault-api/internal/infrastructure/metrics"
	"filevault-api/internal/infrastructure/mq"
)

type fakeVerifier struct {
	VerifyFunc func(ctx context.Context, rawToken string) (*ports.ExternalIdentity, error)
}

func (f *fakeVerifier) Verify(ctx context.Context, rawToken string) (*ports.ExternalIdentity, error) {
	return f.VerifyFunc(ctx, rawToken)
}

func googleID(verified bool) *fakeVerifier {
	return &fakeVerifier{VerifyFunc: func(context.Context, string) (*ports.ExternalIdentity, error) {
		return &ports.ExternalIdentity{Subject: "sub-1", Email: "Ann@Example.com", EmailVerified: verified, Name: "Ann"}, nil
	}}
}

func newTestAuthService(v ports.IdentityVerifier, repo *fakeUserRepo, events *fakeEvents) (*AuthService, *jwt.Service) {
	js := jwt.New("test-secret")
	as := NewAuthService(zap.NewNop(), js, v, repo, events, metrics.NewUnregistered(), 3*time.Hour)
	as.bcryptCost = bcrypt.MinCost
	return as, js
}

func TestAuthService_LoginWithExternalToken_CreatesUser(t *testing.T) {
	var created user.User
	repo := &fakeUserRepo{
		CreateUserFunc: func(_ context.Context, req user.User) (*user.User, error) {
			created = req
			req.UUID = uuid.New()
			return &req, nil
		},
	}
	events := &fakeEvents{}
	as, js := newTestAuthService(googleID(true), repo, events)

	s, err := as.LoginWithExternalToken(context.Background(), "google-id-token")
	require.NoError(t, err)

	require.NotNil(t, created.ExternalID)
	assert.Equal(t, "sub-1", *created.ExternalID)
	assert.Equal(t, "ann@example.com", created.Email)
	assert.Equal(t, user.RoleUser, created.Role)
	assert.Equal(t, []string{mq.RoutingUserCreated}, events.actions())

	claims, err := js.ValidateToken(s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.UUID.String(), claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.WithinDuration(t, time.Now().Add(3*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestAuthService_LoginWithExternalToken(t *testing.T) {
	known := &user.User{UUID: uuid.New(), Email: "ann@example.com", Role: user.RoleAdmin}
	blocked := &user.User{UUID: uuid.New(), Email: "ann@example.com", Role: user.RoleUser, Blocked: true}

	tests := []struct {
		name       string
		credential string
		verifier   *fakeVerifier
		repo       *fakeUserRepo
		wantErr    error
		wantRole   string
	}{
		{
			name:       "known subject",
			credential: "tok",
			verifier:   googleID(true),
			repo: &fakeUserRepo{FetchUserByExternalIDFunc: func(context.Context, string) (*user.User, error) {
				return known, nil
			}},
			wantRole: "admin",
		},
		{
			name:       "links verified email",
			credential: "tok",
			verifier:   googleID(true),
			repo: &fakeUserRepo{
				FetchUserByEmailFunc: func(_ context.Context, email string) (*user.User, error) {
					if email != "ann@example.com" {
						return nil, nil
					}
					return known, nil
				},
				LinkExternalIDFunc: func(_ context.Context, id user.UUID, sub string) (*user.User, error) {
					if id != known.UUID || sub != "sub-1" {
						return nil, errors.New("unexpected link")
					}
					return known, nil
				},
			},
			wantRole: "admin",
		},
		{
			name:       "unverified email clashes with local account",
			credential: "tok",
			verifier:   googleID(false),
			repo: &fakeUserRepo{FetchUserByEmailFunc: func(context.Context, string) (*user.User, error) {
				return known, nil
			}},
			wantErr: apperr.ErrConflict,
		},
		{
			name:       "verification fails",
			credential: "tok",
			verifier: &fakeVerifier{VerifyFunc: func(context.Context, string) (*ports.ExternalIdentity, error) {
				return nil, errors.New("token is expired")
			}},
			repo:    &fakeUserRepo{},
			wantErr: apperr.ErrInvalidToken,
		},
		{
			name:       "empty credential",
			credential: "  ",
			verifier:   googleID(true),
			repo:       &fakeUserRepo{},
			wantErr:    apperr.ErrInvalidToken,
		},
		{
			name:       "blocked user",
			credential: "tok",
			verifier:   googleID(true),
			repo: &fakeUserRepo{FetchUserByExternalIDFunc: func(context.Context, string) (*user.User, error) {
				return blocked, nil
			}},
			wantErr: apperr.ErrForbidden,
		},
		{
			name:       "store down",
			credential: "tok",
			verifier:   googleID(true),
			repo: &fakeUserRepo{FetchUserByExternalIDFunc: func(context.Context, string) (*user.User, error) {
				return nil, errors.New("db down")
			}},
			wantErr: apperr.ErrPersistence,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			as, js := newTestAuthService(tt.verifier, tt.repo, &fakeEvents{})

			s, err := as.LoginWithExternalToken(context.Background(), tt.credential)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			claims, err := js.ValidateToken(s.Token)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, claims.Role)
		})
	}
}

func TestAuthService_InvalidTokenHidesCause(t *testing.T) {
	v := &fakeVerifier{VerifyFunc: func(context.Context, string) (*ports.ExternalIdentity, error) {
		return nil, errors.New("crypto/rsa: verification error")
	}}
	as, _ := newTestAuthService(v, &fakeUserRepo{}, &fakeEvents{})

	_, err := as.LoginWithExternalToken(context.Background(), "tok")
	assert.Equal(t, "invalid token", apperr.As(err).Message)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	var stored *user.User
	repo := &fakeUserRepo{
		CreateUserFunc: func(_ context.Context, req user.User) (*user.User, error) {
			if stored != nil {
				return nil, user.ErrEmailAlreadyExists
			}
			req.UUID = uuid.New()
			stored = &req
			return stored, nil
		},
		FetchUserByEmailFunc: func(_ context.Context, email string) (*user.User, error) {
			if stored != nil && stored.Email == email {
				return stored, nil
			}
			return nil, nil
		},
	}
	as, _ := newTestAuthService(&fakeVerifier{}, repo, &fakeEvents{})
	ctx := context.Background()

	s, err := as.Register(ctx, " Bob@Example.com ", "correct horse", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", s.User.Email)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "correct horse", *stored.PasswordHash)

	_, err = as.Register(ctx, "bob@example.com", "another one", "Bob")
	require.ErrorIs(t, err, apperr.ErrConflict)

	s, err = as.Login(ctx, "BOB@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "bob@example.com", "wrong horse"},
		{"unknown email", "eve@example.com", "correct horse"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := as.Login(ctx, tt.email, tt.password)
			require.ErrorIs(t, err, apperr.ErrInvalidToken)
			assert.Equal(t, "invalid credentials", apperr.As(err).Message)
		})
	}
}

func TestAuthService_Login_ExternalOnlyAccount(t *testing.T) {
	repo := &fakeUserRepo{FetchUserByEmailFunc: func(context.Context, string) (*user.User, error) {
		return &user.User{UUID: uuid.New(), Email: "ann@example.com"}, nil
	}}
	as, _ := newTestAuthService(&fakeVerifier{}, repo, &fakeEvents{})

	_, err := as.Login(context.Background(), "ann@example.com", "whatever1")
	require.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestAuthService_Login_HashesEvenWithoutAccount(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)

	tests := []struct {
		name   string
		stored *user.User
	}{
		{name: "unknown email"},
		{name: "external only account", stored: &user.User{UUID: uuid.New(), Email: "ann@example.com"}},
		{name: "wrong password", stored: &user.User{UUID: uuid.New(), Email: "ann@example.com", PasswordHash: &hashStr}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUserRepo{FetchUserByEmailFunc: func(context.Context, string) (*user.User, error) {
				return tt.stored, nil
			}}
			as, _ := newTestAuthService(&fakeVerifier{}, repo, &fakeEvents{})
			var compared [][]byte
			as.compareHash = func(h, pw []byte) error {
				compared = append(compared, h)
				return bcrypt.CompareHashAndPassword(h, pw)
			}

			_, err := as.Login(context.Background(), "ann@example.com", "wrong horse")
			require.ErrorIs(t, err, apperr.ErrInvalidToken)
			assert.Equal(t, "invalid credentials", apperr.As(err).Message)

			require.Len(t, compared, 1, "one bcrypt comparison per attempt")
			cost, err := bcrypt.Cost(compared[0])
			require.NoError(t, err)
			assert.Equal(t, bcrypt.MinCost, cost)
		})
	}
}

func TestAuthService_LoginWithExternalToken_ConcurrentFirstLogin(t *testing.T) {
	winner := &user.User{UUID: uuid.New(), Email: "ann@example.com", Role: user.RoleUser}
	lookups := 0
	repo := &fakeUserRepo{
		FetchUserByExternalIDFunc: func(_ context.Context, sub string) (*user.User, error) {
			require.Equal(t, "sub-1", sub)
			lookups++
			if lookups == 1 {
				return nil, nil
			}
			return winner, nil
		},
		FetchUserByEmailFunc: func(context.Context, string) (*user.User, error) {
			return nil, nil
		},
		CreateUserFunc: func(context.Context, user.User) (*user.User, error) {
			return nil, user.ErrEmailAlreadyExists
		},
	}
	events := &fakeEvents{}
	as, _ := newTestAuthService(googleID(true), repo, events)

	s, err := as.LoginWithExternalToken(context.Background(), "google-id-token")
	require.NoError(t, err)
	assert.Equal(t, winner.UUID, s.User.UUID)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, 2, lookups)
	assert.Empty(t, events.actions(), "the winning request reports the creation")
}

func TestAuthService_LoginWithExternalToken_EmailTakenByOtherAccount(t *testing.T) {
	repo := &fakeUserRepo{
		CreateUserFunc: func(context.Context, user.User) (*user.User, error) {
			return nil, user.ErrEmailAlreadyExists
		},
	}
	as, _ := newTestAuthService(googleID(true), repo, &fakeEvents{})

	_, err := as.LoginWithExternalToken(context.Background(), "google-id-token")
	require.ErrorIs(t, err, apperr.ErrConflict)
}
