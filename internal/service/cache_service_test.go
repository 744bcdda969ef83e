package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(nil, nil, 0, zap.NewNop(), true)
	assert.False(t, svc.Enabled())
	var dest []string
	hit, err := svc.Get(context.Background(), "k", &dest)
	assert.NoError(t, err)
	assert.False(t, hit)
}
