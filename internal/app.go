package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"filevault-api/config"
	"filevault-api/internal/application/ports"
	"filevault-api/internal/application/services"
	"filevault-api/internal/infrastructure/db/postgres"
	"filevault-api/internal/infrastructure/db/postgres/file_record"
	"filevault-api/internal/infrastructure/db/postgres/user"
	"filevault-api/internal/infrastructure/google"
	"filevault-api/internal/infrastructure/jwt"
	"filevault-api/internal/infrastructure/metrics"
	"filevault-api/internal/infrastructure/mq"
	"filevault-api/internal/infrastructure/s3"
	"filevault-api/internal/interface/api/rest"
	"filevault-api/internal/interface/api/rest/middleware"
	"filevault-api/pkg/rmqconsumer"
)

type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	blobs      ports.BlobStore
	verifier   ports.IdentityVerifier
	httpSrv    *http.Server
	router     *gin.Engine
	metrics    *metrics.Metrics
	mq         ports.RabbitMQ
	mqConsumer ports.RMQConsumer
	janitor    *services.Janitor
}

func NewApp(ctx context.Context) (*App, error) {
	// logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}

	// config
	if err = godotenv.Load(".env"); err != nil {
		logger.Warn("no .env file loaded, using process environment", zap.Error(err))
	}
	cfg := config.Load()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	// metrics
	m := metrics.New()

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogGin(logger, m.Counter))
	if cfg.App.AllowedOrigin != "" {
		r.Use(middleware.CORS(cfg.App.AllowedOrigin))
	}

	// httpServer
	httpSrv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// db
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		return nil, fmt.Errorf("db config: %w", err)
	}
	if err = postgres.Migrate(logger, dbDsn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	dbPool, err := postgres.New(ctx, logger, dbDsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// s3
	s3Client, err := s3.New(ctx, logger, cfg.S3)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("connect to S3: %w", err)
	}

	// google identity
	verifier, err := google.New(ctx, logger, cfg.Google)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("google verifier: %w", err)
	}

	// rabbitMQ
	rabbitDsn, err := cfg.AMQPDSN()
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("rabbitMQ config: %w", err)
	}
	rbMQ := mq.New(cfg.MQ, logger)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("connect to rabbitMQ: %w", err)
	}
	if err = rbMQ.Init(); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("init rabbitMQ: %w", err)
	}
	// rmqConsumer
	rmqConsumer := rmqconsumer.New(cfg.MQ, logger, rbMQ.GetConn())
	if err = rmqConsumer.Connect(rabbitDsn); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("connect rabbitMQ consumer: %w", err)
	}
	if err = rmqConsumer.Init(); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("init rabbitMQ consumer: %w", err)
	}

	return &App{
		logger:     logger,
		cfg:        cfg,
		db:         dbPool,
		blobs:      s3Client,
		verifier:   verifier,
		httpSrv:    httpSrv,
		router:     r,
		metrics:    m,
		mq:         rbMQ,
		mqConsumer: rmqConsumer,
	}, nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		_ = a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.cfg.App.Host+":"+a.cfg.App.Port))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.mq.PublisherWorker(ctx)
		return nil
	})

	g.Go(func() error {
		a.mqConsumer.DeliveryWorker(ctx)
		return nil
	})

	if a.janitor != nil {
		g.Go(func() error {
			return a.janitor.Run(ctx)
		})
	}

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
			return err
		}
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	// repos
	userRepo := user.NewRepository(a.db)
	fileRepo := file_record.NewRepository(a.db)

	// services
	jwtService := jwt.New(a.cfg.App.JWTSecret)
	authService := services.NewAuthService(a.logger, jwtService, a.verifier, userRepo, a.mq, a.metrics, a.cfg.App.SessionTTL)
	fileService := services.NewFileService(a.logger, a.cfg.Upload, a.blobs, fileRepo, userRepo, a.mq, a.metrics)
	userService := services.NewUserService(a.logger, userRepo, fileService, a.mq, a.metrics)
	a.janitor = services.NewJanitor(a.logger, a.cfg.Upload, a.blobs, fileRepo)

	// controllers
	rest.NewAuthController(a.router, a.logger, authService)
	rest.NewFileController(a.router, fileService, a.logger, jwtService, a.cfg.Upload)
	rest.NewUserController(a.router, userService, a.logger, jwtService)

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

func (a *App) Logger() *zap.Logger { return a.logger }
