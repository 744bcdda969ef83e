package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const revokedTokenPrefix = "auth:revoked:"

type revocationStore interface {
	Enabled() bool
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// TokenRevocationService keeps a deny-list of logged-out access tokens until they expire.
// Redis holds the list when configured; otherwise it lives in process memory.
type TokenRevocationService struct {
	store  revocationStore
	logger *zap.Logger
	now    func() time.Time

	mu    sync.Mutex
	local map[string]time.Time
}

// NewTokenRevocationService constructs the deny-list.
func NewTokenRevocationService(store revocationStore, logger *zap.Logger) *TokenRevocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenRevocationService{
		store:  store,
		logger: logger,
		now:    time.Now,
		local:  make(map[string]time.Time),
	}
}

// Revoke denies tokenID until expiresAt.
func (s *TokenRevocationService) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if s.remote() {
		_, err := s.store.SetNX(ctx, revokedTokenPrefix+tokenID, "1", ttl)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, until := range s.local {
		if !until.After(now) {
			delete(s.local, id)
		}
	}
	s.local[tokenID] = expiresAt
	return nil
}

// IsRevoked reports whether tokenID was logged out.
func (s *TokenRevocationService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	if s.remote() {
		return s.store.Exists(ctx, revokedTokenPrefix+tokenID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.local[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(s.now()) {
		delete(s.local, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *TokenRevocationService) remote() bool {
	return s.store != nil && s.store.Enabled()
}
