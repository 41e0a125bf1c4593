package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type (
	APP struct {
		Name          string
		Host          string
		Port          string
		Env           string
		JWTSecret     string
		SessionTTL    time.Duration
		AllowedOrigin string
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
		SSLMode  string
	}
	S3 struct {
		Endpoint        string
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		BucketUploads   string
		UseSSL          bool
		// PublicBaseURL overrides the scheme://endpoint/bucket prefix of public URLs (CDN, reverse proxy).
		PublicBaseURL string
	}
	Google struct {
		ClientID string
		JWKSURL  string
	}
	Upload struct {
		MaxFiles        int
		MaxFileSize     int64
		RemoteTimeout   time.Duration
		RetryAttempts   int
		PendingTTL      time.Duration
		JanitorSchedule string
		RatePerMinute   int
		RateBurst       int
	}
	MQ struct {
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}

	Config struct {
		App    APP
		DB     DB
		S3     S3
		Google Google
		Upload Upload
		MQ     MQ
	}
)

const googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}

func Load() Config {
	app := APP{
		Name:          getEnv("SERVICE_NAME", "filevault"),
		Host:          getEnv("SERVICE_HOST", ""),
		Port:          getEnv("SERVICE_PORT", "8080"),
		Env:           getEnv("SERVICE_ENV", ""),
		JWTSecret:     getEnv("SERVICE_JWT_SECRET", ""),
		SessionTTL:    getEnvDuration("SERVICE_SESSION_TTL", 3*time.Hour),
		AllowedOrigin: getEnv("SERVICE_ALLOWED_ORIGIN", "http://localhost:3000"),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", "5432"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
	s3 := S3{
		Endpoint:        getEnv("S3_ENDPOINT", "localhost:9000"),
		Region:          getEnv("S3_REGION", "us-east-1"),
		AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		BucketUploads:   getEnv("S3_BUCKET_UPLOADS", "filevault"),
		UseSSL:          getEnvBool("S3_USE_SSL", false),
		PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
	}
	google := Google{
		ClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		JWKSURL:  getEnv("GOOGLE_JWKS_URL", googleJWKSURL),
	}
	upload := Upload{
		MaxFiles:        getEnvInt("UPLOAD_MAX_FILES", 5),
		MaxFileSize:     getEnvInt64("UPLOAD_MAX_FILE_SIZE", 2<<20),
		RemoteTimeout:   getEnvDuration("UPLOAD_REMOTE_TIMEOUT", 15*time.Second),
		RetryAttempts:   getEnvInt("UPLOAD_RETRY_ATTEMPTS", 3),
		PendingTTL:      getEnvDuration("UPLOAD_PENDING_TTL", 30*time.Minute),
		JanitorSchedule: getEnv("UPLOAD_JANITOR_SCHEDULE", "@every 10m"),
		RatePerMinute:   getEnvInt("UPLOAD_RATE_PER_MINUTE", 30),
		RateBurst:       getEnvInt("UPLOAD_RATE_BURST", 5),
	}
	mq := MQ{
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", "5672"),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "filevault.events"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "topic"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "filevault.audit"),
	}

	return Config{
		App:    app,
		DB:     db,
		S3:     s3,
		Google: google,
		Upload: upload,
		MQ:     mq,
	}
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.App.JWTSecret == "" {
		errs = append(errs, errors.New("SERVICE_JWT_SECRET is required"))
	}
	if c.Google.ClientID == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID is required"))
	}
	if c.S3.AccessKeyID == "" || c.S3.SecretAccessKey == "" {
		errs = append(errs, errors.New("S3 credentials are required"))
	}
	if c.Upload.MaxFiles <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_FILES must be positive"))
	}
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_FILE_SIZE must be positive"))
	}
	if c.Upload.RetryAttempts <= 0 {
		errs = append(errs, errors.New("UPLOAD_RETRY_ATTEMPTS must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
		c.DB.SSLMode,
	), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
