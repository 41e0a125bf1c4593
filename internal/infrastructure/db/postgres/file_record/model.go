package file_record

import (
	"time"

	"github.com/google/uuid"
)

type (
	FileRecord struct {
		ID      uint64
		UUID    uuid.UUID
		OwnerID uint64

		Slug             string
		Filename         string
		MimeType         string
		SizeBytes        int64
		URL              string
		ProviderObjectID string
		Status           string

		CreatedAt time.Time
		UpdatedAt time.Time
	}
	FileRecords []*FileRecord
)
