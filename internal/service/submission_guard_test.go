package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/models"
)

type fakeLockStore struct {
	keys     map[string]string
	released []string
	err      error
}

func (f *fakeLockStore) Enabled() bool { return true }

func (f *fakeLockStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.keys == nil {
		f.keys = make(map[string]string)
	}
	if _, taken := f.keys[key]; taken {
		return false, nil
	}
	f.keys[key] = value
	return true, nil
}

func (f *fakeLockStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.keys[key]
	return ok, nil
}

func (f *fakeLockStore) DeleteIfValue(ctx context.Context, key, value string) (bool, error) {
	if f.keys[key] != value {
		return false, nil
	}
	delete(f.keys, key)
	f.released = append(f.released, key)
	return true, nil
}

func TestSubmissionGuardInMemory(t *testing.T) {
	guard := NewSubmissionGuard(nil, time.Second, zap.NewNop())
	ctx := context.Background()

	release, ok, err := guard.Acquire(ctx, "stu-1", models.RequestTypeLeave)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = guard.Acquire(ctx, "stu-1", models.RequestTypeLeave)
	require.NoError(t, err)
	assert.False(t, ok)

	otherRelease, ok, err := guard.Acquire(ctx, "stu-1", models.RequestTypeAttendanceCorrection)
	require.NoError(t, err)
	assert.True(t, ok)
	otherRelease()

	release()
	release()

	again, ok, err := guard.Acquire(ctx, "stu-1", models.RequestTypeLeave)
	require.NoError(t, err)
	assert.True(t, ok)
	again()
}

func TestSubmissionGuardRedis(t *testing.T) {
	store := &fakeLockStore{}
	guard := NewSubmissionGuard(store, time.Second, zap.NewNop())
	ctx := context.Background()

	release, ok, err := guard.Acquire(ctx, "stu-1", models.RequestTypeLeave)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, store.keys["submission:lock:leave:stu-1"])

	_, ok, err = guard.Acquire(ctx, "stu-1", models.RequestTypeLeave)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.Equal(t, []string{"submission:lock:leave:stu-1"}, store.released)

	store.err = errors.New("redis down")
	_, _, err = guard.Acquire(ctx, "stu-2", models.RequestTypeLeave)
	assert.Error(t, err)
}

func TestSubmissionGuardStaleReleaseKeepsNewerLock(t *testing.T) {
	store := &fakeLockStore{}
	guard := NewSubmissionGuard(store, time.Second, zap.NewNop())
	ctx := context.Background()
	key := "submission:lock:leave:stu-1"

	staleRelease, ok, err := guard.Acquire(ctx, "stu-1", models.RequestTypeLeave)
	require.NoError(t, err)
	require.True(t, ok)

	// the first holder's TTL lapses and a second submission takes the lock
	delete(store.keys, key)
	release, ok, err := guard.Acquire(ctx, "stu-1", models.RequestTypeLeave)
	require.NoError(t, err)
	require.True(t, ok)
	holder := store.keys[key]

	staleRelease()
	assert.Equal(t, holder, store.keys[key])
	assert.Empty(t, store.released)

	_, ok, err = guard.Acquire(ctx, "stu-1", models.RequestTypeLeave)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	assert.NotContains(t, store.keys, key)
	assert.Equal(t, []string{key}, store.released)
}
