package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"tournament-tracker/internal/constants"
	"tournament-tracker/internal/domain"
	"tournament-tracker/internal/store"

	"github.com/rs/zerolog"
)

// ErrSessionNotFound is returned for a missing or expired session. The
// presentation layer reports session-expired and restarts the wizard; no
// reconstruction is attempted.
var ErrSessionNotFound = errors.New("session not found")

// Sessions holds short-lived per-user wizard state. Every Set is a full
// overwrite of the session object and restarts its TTL window; an abandoned
// wizard simply expires out of the store.
//
// There is no concurrency control across a user's devices. A single user's
// Discord interactions are serialized by the platform, so last-writer-wins
// is accepted.
type Sessions struct {
	store  store.Store
	ttl    time.Duration
	logger zerolog.Logger
}

func NewSessions(st store.Store, logger zerolog.Logger) *Sessions {
	return &Sessions{
		store:  st,
		ttl:    constants.SessionTTL,
		logger: logger.With().Str("cache", "session").Logger(),
	}
}

func sessionKey(userID string) string {
	return "session:" + userID
}

func (s *Sessions) Get(ctx context.Context, userID string) (*domain.Session, error) {
	raw, ok, err := s.store.Get(ctx, sessionKey(userID))
	if err != nil {
		return nil, fmt.Errorf("session read for %s: %w", userID, err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("corrupt session dropped")
		_ = s.store.Del(ctx, sessionKey(userID))
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *Sessions) Set(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session marshal for %s: %w", sess.UserID, err)
	}
	if err := s.store.SetEx(ctx, sessionKey(sess.UserID), string(data), s.ttl); err != nil {
		return fmt.Errorf("session write for %s: %w", sess.UserID, err)
	}
	return nil
}

func (s *Sessions) Clear(ctx context.Context, userID string) error {
	return s.store.Del(ctx, sessionKey(userID))
}
