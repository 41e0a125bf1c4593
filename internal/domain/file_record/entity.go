package file_record

import (
	"time"

	"github.com/google/uuid"

	"filevault-api/internal/domain/user"
)

type Status string

const (
	// StatusPending rows exist before the blob upload finished; only the janitor reads them.
	StatusPending   Status = "pending"
	StatusCommitted Status = "committed"
)

type (
	FileRecord struct {
		ID      uint64
		UUID    uuid.UUID
		OwnerID user.ID

		Slug             string
		Filename         string
		MimeType         string
		SizeBytes        uint64
		URL              string
		ProviderObjectID string
		Status           Status

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	FileRecords []*FileRecord
)
