package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"filevault-api/internal/application/ports"
	domain "filevault-api/internal/domain/file_record"
	"filevault-api/internal/domain/user"
	"filevault-api/internal/infrastructure/mq"
)

type fakeBlobStore struct {
	UploadFunc  func(ctx context.Context, in ports.BlobUpload) (*ports.StoredObject, error)
	DeleteFunc  func(ctx context.Context, objectID string) error
	PresignFunc func(ctx context.Context, objectID string, expiry time.Duration) (string, error)

	uploads atomic.Int32
	deletes atomic.Int32
}

func (f *fakeBlobStore) Upload(ctx context.Context, in ports.BlobUpload) (*ports.StoredObject, error) {
	f.uploads.Add(1)
	if f.UploadFunc != nil {
		return f.UploadFunc(ctx, in)
	}
	return &ports.StoredObject{
		ObjectID:         in.Key,
		URL:              "https://blobs.test/" + in.Key,
		OriginalFilename: in.Filename,
	}, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, objectID string) error {
	f.deletes.Add(1)
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, objectID)
	}
	return nil
}

func (f *fakeBlobStore) PresignedURL(ctx context.Context, objectID string, expiry time.Duration) (string, error) {
	if f.PresignFunc != nil {
		return f.PresignFunc(ctx, objectID, expiry)
	}
	return "https://blobs.test/" + objectID + "?signed", nil
}

// memFileRepo is an in-memory file_record.Repository; the ...Func hooks inject failures.
type memFileRepo struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]*domain.FileRecord
	now    func() time.Time

	CreatePendingFunc func(req *domain.FileRecord) error
	CommitFunc        func(id uint64) error
	DeleteFunc        func(id uint64) error
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{rows: make(map[uint64]*domain.FileRecord), now: time.Now}
}

func (r *memFileRepo) CreatePending(_ context.Context, req *domain.FileRecord) (*domain.FileRecord, error) {
	if r.CreatePendingFunc != nil {
		if err := r.CreatePendingFunc(req); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Slug == req.Slug {
			return nil, domain.ErrSlugTaken
		}
	}
	r.nextID++
	now := r.now()
	fr := *req
	fr.ID = r.nextID
	fr.UUID = uuid.New()
	fr.Status = domain.StatusPending
	fr.CreatedAt, fr.UpdatedAt = now, now
	r.rows[fr.ID] = &fr

	out := fr
	return &out, nil
}

func (r *memFileRepo) Commit(_ context.Context, id uint64, url, filename string) (*domain.FileRecord, error) {
	if r.CommitFunc != nil {
		if err := r.CommitFunc(id); err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok || row.Status != domain.StatusPending {
		return nil, fmt.Errorf("commit file record %d: no pending row", id)
	}
	row.Status = domain.StatusCommitted
	row.URL = url
	row.Filename = filename
	row.UpdatedAt = r.now()

	out := *row
	return &out, nil
}

func (r *memFileRepo) FetchByOwner(_ context.Context, ownerID user.ID) (domain.FileRecords, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var frs domain.FileRecords
	for _, row := range r.rows {
		if row.OwnerID == ownerID && row.Status == domain.StatusCommitted {
			out := *row
			frs = append(frs, &out)
		}
	}
	sort.Slice(frs, func(i, j int) bool {
		if !frs[i].CreatedAt.Equal(frs[j].CreatedAt) {
			return frs[i].CreatedAt.After(frs[j].CreatedAt)
		}
		return frs[i].ID > frs[j].ID
	})
	return frs, nil
}

func (r *memFileRepo) FetchBySlug(_ context.Context, ownerID user.ID, slug string) (*domain.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.OwnerID == ownerID && row.Slug == slug && row.Status == domain.StatusCommitted {
			out := *row
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memFileRepo) FetchStalePending(_ context.Context, before time.Time, limit int) (domain.FileRecords, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var frs domain.FileRecords
	for _, row := range r.rows {
		if row.Status == domain.StatusPending && row.UpdatedAt.Before(before) && len(frs) < limit {
			out := *row
			frs = append(frs, &out)
		}
	}
	return frs, nil
}

func (r *memFileRepo) Delete(_ context.Context, id uint64) error {
	if r.DeleteFunc != nil {
		if err := r.DeleteFunc(id); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memFileRepo) count(status domain.Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, row := range r.rows {
		if row.Status == status {
			n++
		}
	}
	return n
}

// insert adds a row directly, bypassing the pending protocol.
func (r *memFileRepo) insert(fr domain.FileRecord) *domain.FileRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	fr.ID = r.nextID
	if fr.UUID == uuid.Nil {
		fr.UUID = uuid.New()
	}
	r.rows[fr.ID] = &fr
	out := fr
	return &out
}

type fakeUserRepo struct {
	FetchUserByIDFunc         func(ctx context.Context, uuid user.UUID) (*user.User, error)
	FetchUserByEmailFunc      func(ctx context.Context, email string) (*user.User, error)
	FetchUserByExternalIDFunc func(ctx context.Context, externalID string) (*user.User, error)
	FetchUsersFunc            func(ctx context.Context, page int) (user.Users, error)
	CreateUserFunc            func(ctx context.Context, req user.User) (*user.User, error)
	LinkExternalIDFunc        func(ctx context.Context, uuid user.UUID, externalID string) (*user.User, error)
	UpdateProfileFunc         func(ctx context.Context, uuid user.UUID, displayName string) (*user.User, error)
	SetBlockedFunc            func(ctx context.Context, uuid user.UUID, blocked bool) (*user.User, error)
	SetRoleFunc               func(ctx context.Context, uuid user.UUID, role user.Role) (*user.User, error)
	FetchInternalIDFunc       func(ctx context.Context, uuid user.UUID) (user.ID, error)
	DeleteUserFunc            func(ctx context.Context, id user.ID) (*user.User, error)
}

func (f *fakeUserRepo) FetchUserByID(ctx context.Context, uuid user.UUID) (*user.User, error) {
	if f.FetchUserByIDFunc == nil {
		return nil, nil
	}
	return f.FetchUserByIDFunc(ctx, uuid)
}

func (f *fakeUserRepo) FetchUserByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.FetchUserByEmailFunc == nil {
		return nil, nil
	}
	return f.FetchUserByEmailFunc(ctx, email)
}

func (f *fakeUserRepo) FetchUserByExternalID(ctx context.Context, externalID string) (*user.User, error) {
	if f.FetchUserByExternalIDFunc == nil {
		return nil, nil
	}
	return f.FetchUserByExternalIDFunc(ctx, externalID)
}

func (f *fakeUserRepo) FetchUsers(ctx context.Context, page int) (user.Users, error) {
	if f.FetchUsersFunc == nil {
		return nil, nil
	}
	return f.FetchUsersFunc(ctx, page)
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, req user.User) (*user.User, error) {
	if f.CreateUserFunc == nil {
		req.UUID = uuid.New()
		return &req, nil
	}
	return f.CreateUserFunc(ctx, req)
}

func (f *fakeUserRepo) LinkExternalID(ctx context.Context, uuid user.UUID, externalID string) (*user.User, error) {
	if f.LinkExternalIDFunc == nil {
		return nil, nil
	}
	return f.LinkExternalIDFunc(ctx, uuid, externalID)
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, uuid user.UUID, displayName string) (*user.User, error) {
	if f.UpdateProfileFunc == nil {
		return nil, nil
	}
	return f.UpdateProfileFunc(ctx, uuid, displayName)
}

func (f *fakeUserRepo) SetBlocked(ctx context.Context, uuid user.UUID, blocked bool) (*user.User, error) {
	if f.SetBlockedFunc == nil {
		return nil, nil
	}
	return f.SetBlockedFunc(ctx, uuid, blocked)
}

func (f *fakeUserRepo) SetRole(ctx context.Context, uuid user.UUID, role user.Role) (*user.User, error) {
	if f.SetRoleFunc == nil {
		return nil, nil
	}
	return f.SetRoleFunc(ctx, uuid, role)
}

func (f *fakeUserRepo) FetchInternalID(ctx context.Context, uuid user.UUID) (user.ID, error) {
	if f.FetchInternalIDFunc == nil {
		return 0, user.ErrNotFound
	}
	return f.FetchInternalIDFunc(ctx, uuid)
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, id user.ID) (*user.User, error) {
	if f.DeleteUserFunc == nil {
		return nil, nil
	}
	return f.DeleteUserFunc(ctx, id)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []mq.Event
}

func (f *fakeEvents) Emit(e mq.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return true
}

func (f *fakeEvents) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Action
	}
	return out
}
