package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"filevault-api/internal/application/apperr"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:      http.StatusBadRequest,
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindInvalidToken:    http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindConflict:        http.StatusConflict,
	apperr.KindUpload:          http.StatusBadGateway,
	apperr.KindPersistence:     http.StatusInternalServerError,
	apperr.KindInternal:        http.StatusInternalServerError,
}

func statusOf(kind apperr.Kind) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// errorBody renders err for clients. Causes stay in the logs.
func errorBody(e *apperr.Error) gin.H {
	body := gin.H{"message": e.Message}
	if e.Message == "" {
		body["message"] = http.StatusText(statusOf(e.Kind))
	}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	return body
}

func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	e := apperr.As(err)
	status := statusOf(e.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error(op+" error",
			zap.Error(err),
			zap.Stringer("kind", e.Kind),
			zap.String("path", c.FullPath()),
		)
	}

	c.JSON(status, errorBody(e))
}

func respondBadRequest(c *gin.Context, msg string, details any) {
	body := gin.H{"message": msg}
	if details != nil {
		body["details"] = details
	}
	c.JSON(http.StatusBadRequest, body)
}
