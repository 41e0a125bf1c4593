package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const maxLogBodySize = 1 << 12 // 4 KB

// bodies of these routes carry credentials
var redactedPaths = []string{"/auth/"}

func RequestLogGin(logger *zap.Logger, mCounter *prometheus.CounterVec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions ||
			c.Request.URL.Path == "/favicon.ico" ||
			strings.HasSuffix(c.Request.URL.Path, "/metrics") {
			c.Next()
			return
		}

		start := time.Now()

		var body string
		if c.Request.Body != nil && logger.Core().Enabled(zap.DebugLevel) {
			switch {
			case strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data"):
				body = "<multipart/form-data omitted>"
			case isRedacted(c.Request.URL.Path):
				body = "<redacted>"
			default:
				var buf bytes.Buffer
				_, _ = io.Copy(&buf, io.LimitReader(c.Request.Body, maxLogBodySize))
				c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf.Bytes()), c.Request.Body))
				body = buf.String()
			}
		}

		c.Next()

		if mCounter != nil {
			mCounter.WithLabelValues("app_requests_total").Inc()
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("url", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if body != "" {
			fields = append(fields, zap.String("body", body))
		}
		logger.Info("HTTP request", fields...)
	}
}

func isRedacted(path string) bool {
	for _, p := range redactedPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}
