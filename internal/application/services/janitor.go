package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"filevault-api/config"
	"filevault-api/internal/application/ports"
	domain "filevault-api/internal/domain/file_record"
)

const janitorBatchSize = 100

// Janitor collects pending file records whose upload never committed, blob first.
type Janitor struct {
	logger         *zap.Logger
	cfg            config.Upload
	blobs          ports.BlobStore
	fileRepository domain.Repository
	now            func() time.Time
}

func NewJanitor(
	logger *zap.Logger,
	cfg config.Upload,
	blobs ports.BlobStore,
	fileRepository domain.Repository,
) *Janitor {
	return &Janitor{
		logger:         logger,
		cfg:            cfg,
		blobs:          blobs,
		fileRepository: fileRepository,
		now:            time.Now,
	}
}

// Sweep removes one batch of stale pending records and reports how many were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	before := j.now().Add(-j.cfg.PendingTTL)
	frs, err := j.fileRepository.FetchStalePending(ctx, before, janitorBatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch stale pending: %w", err)
	}

	removed := 0
	for _, fr := range frs {
		log := j.logger.With(zap.String("slug", fr.Slug), zap.String("object_id", fr.ProviderObjectID))

		dctx, cancel := context.WithTimeout(ctx, j.cfg.RemoteTimeout)
		err = j.blobs.Delete(dctx, fr.ProviderObjectID)
		cancel()
		if err != nil {
			log.Warn("janitor blob delete failed", zap.Error(err))
			continue
		}
		if err = j.fileRepository.Delete(ctx, fr.ID); err != nil {
			log.Warn("janitor record delete failed", zap.Error(err))
			continue
		}
		removed++
	}

	return removed, nil
}

// Run sweeps on cfg.JanitorSchedule until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(j.cfg.JanitorSchedule, func() {
		n, err := j.Sweep(ctx)
		if err != nil {
			j.logger.Error("janitor sweep failed", zap.Error(err))
			return
		}
		if n > 0 {
			j.logger.Info("janitor removed stale pending files", zap.Int("count", n))
		}
	}); err != nil {
		return fmt.Errorf("janitor schedule %q: %w", j.cfg.JanitorSchedule, err)
	}

	j.logger.Info("starting janitor", zap.String("schedule", j.cfg.JanitorSchedule))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	j.logger.Info("janitor gracefully stopped")

	return nil
}
