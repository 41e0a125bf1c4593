package file_record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"filevault-api/internal/domain/file_record"
	"filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/db/postgres"
)

const slugConstraint = "file_records_slug_key"

type Repository struct {
	db postgres.DB
}

func NewRepository(db postgres.DB) file_record.Repository {
	return &Repository{db: db}
}

func scanFileRecord(row pgx.Row) (*FileRecord, error) {
	fr := new(FileRecord)
	err := row.Scan(
		&fr.ID,
		&fr.UUID,
		&fr.OwnerID,

		&fr.Slug,
		&fr.Filename,
		&fr.MimeType,
		&fr.SizeBytes,
		&fr.URL,
		&fr.ProviderObjectID,
		&fr.Status,

		&fr.CreatedAt,
		&fr.UpdatedAt,
	)
	return fr, err
}

func (r *Repository) queryMany(ctx context.Context, query string, args ...any) (file_record.FileRecords, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frs FileRecords
	for rows.Next() {
		fr, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		frs = append(frs, fr)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fromDBModels(&frs), nil
}

func (r *Repository) CreatePending(ctx context.Context, req *file_record.FileRecord) (*file_record.FileRecord, error) {
	fr, err := scanFileRecord(r.db.QueryRow(
		ctx,
		InsertPendingFileRecord,
		uint64(req.OwnerID), req.Slug, req.Filename, req.MimeType, int64(req.SizeBytes), req.ProviderObjectID,
	))
	if err != nil {
		if postgres.UniqueConstraint(err) == slugConstraint {
			return nil, file_record.ErrSlugTaken
		}
		return nil, err
	}

	return fromDBModel(fr), nil
}

func (r *Repository) Commit(ctx context.Context, id uint64, url, filename string) (*file_record.FileRecord, error) {
	fr, err := scanFileRecord(r.db.QueryRow(ctx, CommitFileRecord, id, url, filename))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("commit file record %d: no pending row", id)
		}
		return nil, err
	}

	return fromDBModel(fr), nil
}

func (r *Repository) FetchByOwner(ctx context.Context, ownerID user.ID) (file_record.FileRecords, error) {
	return r.queryMany(ctx, SelectOwnerFileRecords, uint64(ownerID))
}

func (r *Repository) FetchBySlug(ctx context.Context, ownerID user.ID, slug string) (*file_record.FileRecord, error) {
	fr, err := scanFileRecord(r.db.QueryRow(ctx, SelectFileRecordBySlug, uint64(ownerID), slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return fromDBModel(fr), nil
}

func (r *Repository) FetchStalePending(ctx context.Context, before time.Time, limit int) (file_record.FileRecords, error) {
	return r.queryMany(ctx, SelectStalePendingFileRecords, before, limit)
}

func (r *Repository) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.Exec(ctx, DeleteFileRecordByID, id)
	return err
}
