package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTokenRevocationInMemory(t *testing.T) {
	svc := NewTokenRevocationService(nil, zap.NewNop())
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "jti-1", now.Add(time.Hour)))
	require.NoError(t, svc.Revoke(ctx, "jti-old", now.Add(-time.Minute)))

	revoked, err := svc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = svc.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, err = svc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenRevocationRedis(t *testing.T) {
	store := &fakeLockStore{}
	svc := NewTokenRevocationService(store, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	assert.Contains(t, store.keys, "auth:revoked:jti-1")

	revoked, err := svc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
