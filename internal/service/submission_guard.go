package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-request-api/internal/models"
)

const submissionLockPrefix = "submission:lock:"

type lockStore interface {
	Enabled() bool
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
}

// SubmissionGuard refuses a submission while another one for the same student and request
// type is still being processed. It does not deduplicate stored records.
type SubmissionGuard struct {
	store  lockStore
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewSubmissionGuard constructs a guard. Redis backs it when store is enabled.
func NewSubmissionGuard(store lockStore, ttl time.Duration, logger *zap.Logger) *SubmissionGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionGuard{store: store, ttl: ttl, logger: logger, inFlight: make(map[string]struct{})}
}

// Acquire marks the (student, kind) pair busy. ok is false when a submission is already running.
// The returned release must be called once processing ends.
func (g *SubmissionGuard) Acquire(ctx context.Context, studentID string, kind models.RequestType) (release func(), ok bool, err error) {
	key := fmt.Sprintf("%s:%s", kind, studentID)

	if g.store != nil && g.store.Enabled() {
		redisKey := submissionLockPrefix + key
		token := uuid.NewString()
		acquired, err := g.store.SetNX(ctx, redisKey, token, g.ttl)
		if err != nil {
			return nil, false, err
		}
		if !acquired {
			return nil, false, nil
		}
		return func() {
			released, err := g.store.DeleteIfValue(context.Background(), redisKey, token)
			if err != nil {
				g.logger.Warn("failed to release submission lock", zap.String("key", redisKey), zap.Error(err))
				return
			}
			if !released {
				g.logger.Warn("submission lock expired before release", zap.String("key", redisKey))
			}
		}, true, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return nil, false, nil
	}
	g.inFlight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}, true, nil
}
