package file_record

const (
	fileColumns = `id, uuid, owner_id, slug, filename, mime_type, size_bytes, url, provider_object_id, status, created_at, updated_at`

	InsertPendingFileRecord = `
		INSERT INTO file_records (owner_id, slug, filename, mime_type, size_bytes, provider_object_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING ` + fileColumns + `
	`
	CommitFileRecord = `
		UPDATE file_records
		SET status = 'committed',
		    url = $2,
		    filename = $3,
		    updated_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + fileColumns + `
	`
	SelectOwnerFileRecords = `
		SELECT ` + fileColumns + `
		FROM file_records
		WHERE owner_id = $1 AND status = 'committed'
		ORDER BY created_at DESC, id DESC
	`
	SelectFileRecordBySlug = `
		SELECT ` + fileColumns + `
		FROM file_records
		WHERE owner_id = $1 AND slug = $2 AND status = 'committed'
	`
	SelectStalePendingFileRecords = `
		SELECT ` + fileColumns + `
		FROM file_records
		WHERE status = 'pending' AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2
	`
	DeleteFileRecordByID = `DELETE FROM file_records WHERE id = $1`
)
