package file_record

import (
	"time"

	"github.com/google/uuid"
)

type (
	FileRecord struct {
		ID        uuid.UUID `json:"id"`
		Filename  string    `json:"filename"`
		URL       string    `json:"url"`
		Slug      string    `json:"slug"`
		MimeType  string    `json:"mime_type"`
		SizeBytes uint64    `json:"size_bytes"`
		CreatedAt time.Time `json:"created_at"`
	}
	FileRecords []FileRecord
)
