//go:build integration

package storage

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-labs/docq/internal/testutil"
)

func newTestS3Store(ctx context.Context, t *testing.T) *S3Store {
	t.Helper()

	rc := testutil.NewRustFSContainer(ctx, t)
	t.Cleanup(func() { rc.Terminate(ctx) })

	store, err := NewS3Store(ctx, S3StoreConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-snapshots",
		Prefix:          "indexes",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx))

	return store
}

func TestS3Store_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestS3Store(ctx, t)

	data := []byte(`{"version":1,"entries":[]}`)
	require.NoError(t, store.Save(ctx, "index.snapshot", data))

	loaded, err := store.Load(ctx, "index.snapshot")
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestS3Store_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestS3Store(ctx, t)

	require.NoError(t, store.Save(ctx, "index.snapshot", []byte("first")))
	require.NoError(t, store.Save(ctx, "index.snapshot", []byte("second")))

	loaded, err := store.Load(ctx, "index.snapshot")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), loaded)
}

func TestS3Store_LoadMissing(t *testing.T) {
	ctx := context.Background()
	store := newTestS3Store(ctx, t)

	_, err := store.Load(ctx, "never-saved")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestS3Store_EnsureBucketIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestS3Store(ctx, t)

	// Bucket already exists from setup.
	assert.NoError(t, store.EnsureBucket(ctx))
}
