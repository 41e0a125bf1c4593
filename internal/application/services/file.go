package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"filevault-api/config"
	"filevault-api/internal/application/apperr"
	"filevault-api/internal/application/ports"
	domain "filevault-api/internal/domain/file_record"
	"filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/metrics"
	"filevault-api/internal/infrastructure/mq"
	dto "filevault-api/internal/interface/api/rest/dto/file_record"
)

const (
	maxSlugAttempts = 3
	downloadURLTTL  = 15 * time.Minute
)

var _ ports.FileService = (*FileService)(nil)

type FileService struct {
	logger         *zap.Logger
	cfg            config.Upload
	blobs          ports.BlobStore
	fileRepository domain.Repository
	userRepository user.Repository
	events         ports.EventPublisher
	metrics        *metrics.Metrics

	newSlug    func() (string, error)
	newBackOff func() backoff.BackOff
}

func NewFileService(
	logger *zap.Logger,
	cfg config.Upload,
	blobs ports.BlobStore,
	fileRepository domain.Repository,
	userRepository user.Repository,
	events ports.EventPublisher,
	m *metrics.Metrics,
) *FileService {
	return &FileService{
		logger:         logger,
		cfg:            cfg,
		blobs:          blobs,
		fileRepository: fileRepository,
		userRepository: userRepository,
		events:         events,
		metrics:        m,
		newSlug:        domain.NewSlug,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

func (fs *FileService) Upload(
	ctx context.Context,
	ownerUUID user.UUID,
	files []ports.UploadFile,
) (domain.FileRecords, error) {
	if err := fs.validate(files); err != nil {
		return nil, err
	}

	ownerID, err := fs.ownerID(ctx, ownerUUID)
	if err != nil {
		return nil, err
	}

	var (
		records = make([]*domain.FileRecord, len(files))
		errs    = make([]error, len(files))
		g       errgroup.Group
	)
	// no sibling cancellation: every file settles on its own
	g.SetLimit(fs.cfg.MaxFiles)
	for i := range files {
		i := i
		g.Go(func() error {
			records[i], errs[i] = fs.uploadOne(ctx, ownerUUID, ownerID, files[i])
			return errs[i]
		})
	}
	_ = g.Wait()

	var committed domain.FileRecords
	for _, fr := range records {
		if fr != nil {
			committed = append(committed, fr)
		}
	}
	for _, err := range errs {
		if err != nil {
			return committed, err
		}
	}

	return committed, nil
}

func (fs *FileService) uploadOne(
	ctx context.Context,
	ownerUUID user.UUID,
	ownerID user.ID,
	f ports.UploadFile,
) (*domain.FileRecord, error) {
	name := displayName(f.Filename)
	contentType := resolveContentType(f)

	pending, err := fs.createPending(ctx, ownerUUID, ownerID, name, contentType, f.Size)
	if err != nil {
		return nil, err
	}
	log := fs.logger.With(
		zap.String("slug", pending.Slug),
		zap.String("owner", ownerUUID.String()),
		zap.String("object_id", pending.ProviderObjectID),
	)

	start := time.Now()
	var stored *ports.StoredObject
	err = fs.retry(ctx, func(actx context.Context) error {
		var uerr error
		stored, uerr = fs.blobs.Upload(actx, ports.BlobUpload{
			Key:         pending.ProviderObjectID,
			Filename:    name,
			ContentType: contentType,
			Data:        f.Data,
		})
		return uerr
	})
	fs.metrics.UploadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error("blob upload failed", zap.Error(err))
		fs.metrics.Counter.WithLabelValues("file_upload_failed_total").Inc()
		fs.discardPending(ctx, log, pending)
		return nil, apperr.Upload("failed to upload file", err)
	}

	committed, err := fs.fileRepository.Commit(ctx, pending.ID, stored.URL, stored.OriginalFilename)
	if err != nil {
		// pending row and blob are left for the janitor
		log.Error("commit file record failed", zap.Error(err))
		return nil, apperr.Persistence("failed to save file metadata", err)
	}

	fs.events.Emit(mq.NewEvent(mq.RoutingFileUploaded, ownerUUID.String(), dto.ToResponseFileRecord(*committed)))
	fs.metrics.Counter.WithLabelValues("file_uploaded_total").Inc()
	log.Info("file uploaded", zap.Uint64("size_bytes", committed.SizeBytes))

	return committed, nil
}

func (fs *FileService) createPending(
	ctx context.Context,
	ownerUUID user.UUID,
	ownerID user.ID,
	name, contentType string,
	size int64,
) (*domain.FileRecord, error) {
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug, err := fs.newSlug()
		if err != nil {
			return nil, apperr.Internal("failed to generate slug", err)
		}

		fr, err := fs.fileRepository.CreatePending(ctx, &domain.FileRecord{
			OwnerID:          ownerID,
			Slug:             slug,
			Filename:         name,
			MimeType:         contentType,
			SizeBytes:        uint64(size),
			ProviderObjectID: objectKey(ownerUUID, slug, name, contentType),
		})
		if errors.Is(err, domain.ErrSlugTaken) {
			fs.logger.Warn("slug collision", zap.String("slug", slug))
			continue
		}
		if err != nil {
			return nil, apperr.Persistence("failed to save file metadata", err)
		}
		return fr, nil
	}

	return nil, apperr.Persistence("failed to save file metadata", domain.ErrSlugTaken)
}

// discardPending removes a pending row whose upload failed. The row stays for the janitor if the blob cannot be removed.
func (fs *FileService) discardPending(ctx context.Context, log *zap.Logger, fr *domain.FileRecord) {
	ctx = context.WithoutCancel(ctx)

	dctx, cancel := context.WithTimeout(ctx, fs.cfg.RemoteTimeout)
	defer cancel()
	if err := fs.blobs.Delete(dctx, fr.ProviderObjectID); err != nil {
		log.Warn("discard blob failed, left for janitor", zap.Error(err))
		return
	}
	if err := fs.fileRepository.Delete(ctx, fr.ID); err != nil {
		log.Warn("discard pending record failed, left for janitor", zap.Error(err))
	}
}

// retry runs fn with a fresh per-attempt timeout, at most cfg.RetryAttempts times.
func (fs *FileService) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := fs.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(fs.newBackOff(), uint64(attempts-1)), ctx)

	return backoff.Retry(func() error {
		actx, cancel := context.WithTimeout(ctx, fs.cfg.RemoteTimeout)
		defer cancel()
		return fn(actx)
	}, b)
}

func (fs *FileService) validate(files []ports.UploadFile) error {
	if len(files) == 0 {
		return apperr.Validation("no files provided", map[string]string{"files": "at least one file is required"})
	}
	if len(files) > fs.cfg.MaxFiles {
		return apperr.Validation("too many files", map[string]string{
			"files": fmt.Sprintf("at most %d files per request", fs.cfg.MaxFiles),
		})
	}

	details := make(map[string]string)
	for i, f := range files {
		key := fmt.Sprintf("files[%d]", i)
		switch {
		case f.Size > fs.cfg.MaxFileSize || int64(len(f.Data)) > fs.cfg.MaxFileSize:
			details[key] = fmt.Sprintf("file exceeds %d bytes", fs.cfg.MaxFileSize)
		case f.Size <= 0 || len(f.Data) == 0:
			details[key] = "file is empty"
		case !allowedContentType(resolveContentType(f)):
			details[key] = "only images and PDF files are allowed"
		}
	}
	if len(details) > 0 {
		return apperr.Validation("invalid files", details)
	}

	return nil
}

func resolveContentType(f ports.UploadFile) string {
	ct := strings.TrimSpace(f.ContentType)
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if ct == "" || ct == "application/octet-stream" {
		ct, _, _ = strings.Cut(http.DetectContentType(f.Data), ";")
	}
	return strings.ToLower(ct)
}

// image/svg+xml is excluded, it can carry script and objects are served from a public origin.
func allowedContentType(ct string) bool {
	if ct == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}

func (fs *FileService) List(ctx context.Context, ownerUUID user.UUID) (domain.FileRecords, error) {
	ownerID, err := fs.ownerID(ctx, ownerUUID)
	if err != nil {
		return nil, err
	}

	frs, err := fs.fileRepository.FetchByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Persistence("failed to list files", err)
	}
	if frs == nil {
		frs = domain.FileRecords{}
	}

	return frs, nil
}

func (fs *FileService) Get(ctx context.Context, ownerUUID user.UUID, slug string) (*domain.FileRecord, error) {
	if !domain.IsSlug(slug) {
		return nil, apperr.NotFound("file not found")
	}

	ownerID, err := fs.ownerID(ctx, ownerUUID)
	if err != nil {
		return nil, err
	}

	fr, err := fs.fileRepository.FetchBySlug(ctx, ownerID, slug)
	if err != nil {
		return nil, apperr.Persistence("failed to fetch file", err)
	}
	if fr == nil {
		return nil, apperr.NotFound("file not found")
	}

	return fr, nil
}

func (fs *FileService) DownloadURL(ctx context.Context, ownerUUID user.UUID, slug string) (string, error) {
	fr, err := fs.Get(ctx, ownerUUID, slug)
	if err != nil {
		return "", err
	}

	pctx, cancel := context.WithTimeout(ctx, fs.cfg.RemoteTimeout)
	defer cancel()
	u, err := fs.blobs.PresignedURL(pctx, fr.ProviderObjectID, downloadURLTTL)
	if err != nil {
		return "", apperr.Upload("failed to prepare download", err)
	}

	return u, nil
}

// Delete removes the blob first and the row second; a failed blob delete keeps the row.
func (fs *FileService) Delete(ctx context.Context, ownerUUID user.UUID, slug string) error {
	fr, err := fs.Get(ctx, ownerUUID, slug)
	if err != nil {
		return err
	}

	return fs.deleteRecord(ctx, ownerUUID, fr)
}

// DeleteAllForOwner also runs for blocked owners, it backs the admin user delete.
func (fs *FileService) DeleteAllForOwner(ctx context.Context, ownerUUID user.UUID) error {
	ownerID, err := fs.userRepository.FetchInternalID(ctx, ownerUUID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Persistence("failed to fetch user", err)
	}

	frs, err := fs.fileRepository.FetchByOwner(ctx, ownerID)
	if err != nil {
		return apperr.Persistence("failed to list files", err)
	}

	for _, fr := range frs {
		if err = fs.deleteRecord(ctx, ownerUUID, fr); err != nil {
			return err
		}
	}

	return nil
}

func (fs *FileService) deleteRecord(ctx context.Context, ownerUUID user.UUID, fr *domain.FileRecord) error {
	log := fs.logger.With(
		zap.String("slug", fr.Slug),
		zap.String("owner", ownerUUID.String()),
		zap.String("object_id", fr.ProviderObjectID),
	)

	err := fs.retry(ctx, func(actx context.Context) error {
		return fs.blobs.Delete(actx, fr.ProviderObjectID)
	})
	if err != nil {
		log.Error("blob delete failed, record kept", zap.Error(err))
		fs.metrics.Counter.WithLabelValues("file_delete_failed_total").Inc()
		return apperr.Upload("failed to delete file", err)
	}

	if err = fs.fileRepository.Delete(ctx, fr.ID); err != nil {
		log.Error("delete file record failed", zap.Error(err))
		return apperr.Persistence("failed to delete file metadata", err)
	}

	fs.events.Emit(mq.NewEvent(mq.RoutingFileDeleted, ownerUUID.String(), dto.ToResponseFileRecord(*fr)))
	fs.metrics.Counter.WithLabelValues("file_deleted_total").Inc()
	log.Info("file deleted")

	return nil
}

// ownerID reads the caller's row on every request so a block applies to live sessions.
func (fs *FileService) ownerID(ctx context.Context, ownerUUID user.UUID) (user.ID, error) {
	u, err := fs.userRepository.FetchUserByID(ctx, ownerUUID)
	if err != nil {
		return 0, apperr.Persistence("failed to fetch user", err)
	}
	if u == nil {
		return 0, apperr.NotFound("user not found")
	}
	if u.Blocked {
		return 0, apperr.Forbidden("user is blocked")
	}
	return u.ID, nil
}
