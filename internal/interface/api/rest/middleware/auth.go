package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"filevault-api/internal/application/apperr"
	"filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/jwt"
)

const (
	CtxUserRole  = "userRole"
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
)

// AuthMiddleware requires a valid session token and puts its claims into the gin context.
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"message": "missing Authorization header"},
			)
			return
		}

		scheme, tokenStr, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"message": "invalid token format"},
			)
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(tokenStr))
		if err != nil {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"message": "invalid token"},
			)
			return
		}

		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserEmail, claims.Email)

		c.Next()
	}
}

// UserLookup loads the stored account behind a session.
type UserLookup interface {
	FindUserByID(ctx context.Context, uuid user.UUID) (*user.User, error)
}

// RequireRole must run after AuthMiddleware. The token claim is only a first
// filter: the stored role and blocked flag decide, so a demotion or block
// takes effect before the session expires.
func RequireRole(role user.Role, users UserLookup) gin.HandlerFunc {
	forbidden := func(c *gin.Context) {
		c.AbortWithStatusJSON(
			http.StatusForbidden,
			gin.H{"message": "forbidden"},
		)
	}

	return func(c *gin.Context) {
		if c.GetString(CtxUserRole) != string(role) {
			forbidden(c)
			return
		}

		id, ok := UserUUID(c)
		if !ok {
			forbidden(c)
			return
		}

		u, err := users.FindUserByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				forbidden(c)
				return
			}
			c.AbortWithStatusJSON(
				http.StatusInternalServerError,
				gin.H{"message": "failed to fetch user"},
			)
			return
		}
		if u.Role != role || u.Blocked {
			forbidden(c)
			return
		}

		c.Next()
	}
}

// UserUUID returns the authenticated caller's public id.
func UserUUID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString(CtxUserID))
	return id, err == nil
}
