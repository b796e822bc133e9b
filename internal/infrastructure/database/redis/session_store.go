package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/domain/checkout"
)

const sessionKeyPrefix = "checkout:session:"

// SessionStore keeps checkout sessions in Redis, one key per user
type SessionStore struct {
	client *Client
	ttl    time.Duration
	log    *logrus.Entry
}

// NewSessionStore creates a session store. Sessions expire ttl after their
// last save; a zero ttl keeps them until cleared.
func NewSessionStore(client *Client, ttl time.Duration, log *logrus.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		log:    log.WithField("component", "session_store"),
	}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, userID)
}

// Load implements checkout.SessionStore
func (s *SessionStore) Load(ctx context.Context, userID uint) (*checkout.Session, error) {
	data, err := s.client.Redis.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, checkout.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}

	// Check the version before decoding the rest so that older shapes are
	// rejected instead of half-filled.
	var header struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &header); err != nil || header.Version != checkout.SessionVersion {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"version": header.Version,
		}).Warn("Discarding incompatible checkout session")
		return nil, checkout.ErrIncompatibleSession
	}

	var session checkout.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, checkout.ErrIncompatibleSession
	}
	return &session, nil
}

// Save implements checkout.SessionStore
func (s *SessionStore) Save(ctx context.Context, session *checkout.Session) error {
	if err := s.client.SetJSON(ctx, sessionKey(session.UserID), session, s.ttl); err != nil {
		return fmt.Errorf("failed to save checkout session: %w", err)
	}
	return nil
}

// Clear implements checkout.SessionStore
func (s *SessionStore) Clear(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("failed to clear checkout session: %w", err)
	}
	return nil
}
