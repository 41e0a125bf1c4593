package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "filevault-api/internal/domain/file_record"
)

func TestJanitor_Sweep(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newMemFileRepo()
	stale := repo.insert(domain.FileRecord{OwnerID: 1, Slug: "stale001", ProviderObjectID: "k-stale", Status: domain.StatusPending, UpdatedAt: now.Add(-time.Hour)})
	stuck := repo.insert(domain.FileRecord{OwnerID: 1, Slug: "stuck001", ProviderObjectID: "k-stuck", Status: domain.StatusPending, UpdatedAt: now.Add(-time.Hour)})
	repo.insert(domain.FileRecord{OwnerID: 1, Slug: "fresh001", ProviderObjectID: "k-fresh", Status: domain.StatusPending, UpdatedAt: now.Add(-time.Minute)})
	repo.insert(domain.FileRecord{OwnerID: 1, Slug: "done0001", ProviderObjectID: "k-done", Status: domain.StatusCommitted, UpdatedAt: now.Add(-48 * time.Hour)})

	var deleted []string
	blobs := &fakeBlobStore{DeleteFunc: func(_ context.Context, key string) error {
		if key == stuck.ProviderObjectID {
			return errors.New("provider down")
		}
		deleted = append(deleted, key)
		return nil
	}}

	j := NewJanitor(zap.NewNop(), testUploadConfig(), blobs, repo)
	j.now = func() time.Time { return now }

	n, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{stale.ProviderObjectID}, deleted)

	// the blob that could not be removed keeps its row for the next sweep
	assert.Equal(t, 2, repo.count(domain.StatusPending))
	assert.Equal(t, 1, repo.count(domain.StatusCommitted))
}

func TestJanitor_Run_InvalidSchedule(t *testing.T) {
	cfg := testUploadConfig()
	cfg.JanitorSchedule = "every now and then"
	j := NewJanitor(zap.NewNop(), cfg, &fakeBlobStore{}, newMemFileRepo())

	err := j.Run(context.Background())
	require.Error(t, err)
}

func TestJanitor_Run_StopsOnCancel(t *testing.T) {
	cfg := testUploadConfig()
	cfg.JanitorSchedule = "@every 1h"
	j := NewJanitor(zap.NewNop(), cfg, &fakeBlobStore{}, newMemFileRepo())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
