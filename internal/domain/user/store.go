// internal/domain/user/store.go
package user

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// API is the part of the store API profiles need
type API interface {
	GetProfile(ctx context.Context, token string) (*Profile, error)
}

// Store caches the signed-in user's profile
type Store struct {
	api     API
	log     *logrus.Entry
	mu      sync.RWMutex
	profile *Profile
}

// NewStore creates a profile store
func NewStore(api API, log *logrus.Entry) *Store {
	return &Store{
		api: api,
		log: log,
	}
}

// Refresh fetches the profile from the store API
func (s *Store) Refresh(ctx context.Context, token string) (*Profile, error) {
	p, err := s.api.GetProfile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"addresses":       len(p.Addresses),
		"payment_methods": len(p.PaymentMethods),
	}).Debug("profile refreshed")
	return p.Clone(), nil
}

// Get returns the cached profile, fetching it on first use
func (s *Store) Get(ctx context.Context, token string) (*Profile, error) {
	if p := s.Current(); p != nil {
		return p, nil
	}
	return s.Refresh(ctx, token)
}

// Current returns a copy of the cached profile, nil before the first fetch
func (s *Store) Current() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.Clone()
}
