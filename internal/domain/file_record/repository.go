package file_record

import (
	"context"
	"errors"
	"time"

	"filevault-api/internal/domain/user"
)

var ErrSlugTaken = errors.New("slug already taken")

// Repository reads only committed records unless a method name says otherwise.
// Fetch methods return (nil, nil) when no row matches.
type Repository interface {
	CreatePending(ctx context.Context, req *FileRecord) (*FileRecord, error)
	Commit(ctx context.Context, id uint64, url, filename string) (*FileRecord, error)
	FetchByOwner(ctx context.Context, ownerID user.ID) (FileRecords, error)
	FetchBySlug(ctx context.Context, ownerID user.ID, slug string) (*FileRecord, error)
	FetchStalePending(ctx context.Context, before time.Time, limit int) (FileRecords, error)
	Delete(ctx context.Context, id uint64) error
}
