package file_record

import (
	"filevault-api/internal/domain/file_record"
)

func ToResponseFileRecord(frDomain file_record.FileRecord) FileRecord {
	var fr = FileRecord{
		ID:        frDomain.UUID,
		Filename:  frDomain.Filename,
		URL:       frDomain.URL,
		Slug:      frDomain.Slug,
		MimeType:  frDomain.MimeType,
		SizeBytes: frDomain.SizeBytes,
		CreatedAt: frDomain.CreatedAt,
	}

	return fr
}

// ToResponseFileRecords never returns nil so empty lists encode as [].
func ToResponseFileRecords(frsDomain file_record.FileRecords) FileRecords {
	frs := make(FileRecords, len(frsDomain))
	for idx, fr := range frsDomain {
		frs[idx] = ToResponseFileRecord(*fr)
	}

	return frs
}
