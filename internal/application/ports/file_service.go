package ports

import (
	"context"

	"filevault-api/internal/domain/file_record"
	"filevault-api/internal/domain/user"
)

// UploadFile is one multipart part already read into memory.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

type FileService interface {
	// Upload returns the committed records even when it also returns an error.
	Upload(ctx context.Context, ownerUUID user.UUID, files []UploadFile) (file_record.FileRecords, error)
	List(ctx context.Context, ownerUUID user.UUID) (file_record.FileRecords, error)
	Get(ctx context.Context, ownerUUID user.UUID, slug string) (*file_record.FileRecord, error)
	DownloadURL(ctx context.Context, ownerUUID user.UUID, slug string) (string, error)
	Delete(ctx context.Context, ownerUUID user.UUID, slug string) error
	DeleteAllForOwner(ctx context.Context, ownerUUID user.UUID) error
}
