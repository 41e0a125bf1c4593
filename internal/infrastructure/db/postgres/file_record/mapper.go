package file_record

import (
	domain "filevault-api/internal/domain/file_record"
	"filevault-api/internal/domain/user"
)

func fromDBModel(model *FileRecord) *domain.FileRecord {
	var fr = &domain.FileRecord{
		ID:      model.ID,
		UUID:    model.UUID,
		OwnerID: user.ID(model.OwnerID),

		Slug:             model.Slug,
		Filename:         model.Filename,
		MimeType:         model.MimeType,
		SizeBytes:        uint64(model.SizeBytes),
		URL:              model.URL,
		ProviderObjectID: model.ProviderObjectID,
		Status:           domain.Status(model.Status),

		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}

	return fr
}

func fromDBModels(models *FileRecords) domain.FileRecords {
	frs := make(domain.FileRecords, len(*models))
	for idx, fr := range *models {
		frs[idx] = fromDBModel(fr)
	}

	return frs
}
