// File: services/session/redis_store.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"guestara/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore implements Store on a dedicated Redis database. Sessions are
// stored as JSON documents under booking_session:<id>; the caller index
// lives under caller_session:<digits> with the same TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, ttl: DefaultTTL, logger: logger}
}

func (s *RedisStore) Create(ctx context.Context, sess *models.BookingSession) error {
	now := time.Now()
	sess.CreatedAt = now
	sess.UpdatedAt = now
	if sess.Status == "" {
		sess.Status = models.StatusActive
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal booking session: %w", err)
	}

	// Session document and caller index are written in one transaction so
	// resolution never observes a session without its index entry.
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(sess.SessionID), data, s.ttl)
		if sess.CallerPhone != "" {
			// Overwrite on create: a caller with multiple sessions always
			// resolves to the newest one.
			pipe.Set(ctx, callerKey(sess.CallerPhone), sess.SessionID, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store booking session: %w", err)
	}

	s.logger.Info("Created booking session",
		zap.String("sessionID", sess.SessionID),
		zap.String("step", sess.Step))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve booking session %s: %w", sessionID, err)
	}

	var sess models.BookingSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to parse booking session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func (s *RedisStore) Update(ctx context.Context, sessionID string, mutate func(*models.BookingSession)) (*models.BookingSession, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	mutate(sess)
	sess.UpdatedAt = time.Now()

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking session %s: %w", sessionID, err)
	}
	// TTL resets to a full window on every update.
	if err := s.client.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to update booking session %s: %w", sessionID, err)
	}

	s.logger.Info("Updated booking session",
		zap.String("sessionID", sessionID),
		zap.String("step", sess.Step))
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	// Fetch first so the caller-index entry can be cleaned up alongside.
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sessionID))
		if sess.CallerPhone != "" {
			pipe.Del(ctx, callerKey(sess.CallerPhone))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete booking session %s: %w", sessionID, err)
	}

	s.logger.Info("Deleted booking session", zap.String("sessionID", sessionID))
	return nil
}

func (s *RedisStore) Extend(ctx context.Context, sessionID string, hours int) error {
	ttl := time.Duration(hours) * time.Hour
	ok, err := s.client.Expire(ctx, sessionKey(sessionID), ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to extend booking session %s: %w", sessionID, err)
	}
	if !ok {
		return ErrNotFound
	}
	// Best effort on the index; a missing entry just means phone resolution
	// stops working earlier than the session itself expires.
	sess, err := s.Get(ctx, sessionID)
	if err == nil && sess.CallerPhone != "" {
		s.client.Expire(ctx, callerKey(sess.CallerPhone), ttl)
	}
	return nil
}

func (s *RedisStore) ResolveByCaller(ctx context.Context, callerPhone string) (*models.BookingSession, error) {
	if callerPhone == "" {
		return nil, ErrNotFound
	}

	sessionID, err := s.client.Get(ctx, callerKey(callerPhone)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve caller %s: %w", callerPhone, err)
	}

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// The index can go stale if another caller's session overwrote the id;
	// never hand a session to the wrong caller.
	if sess.CallerPhone != callerPhone {
		s.logger.Warn("Caller index pointed at a session owned by another caller",
			zap.String("sessionID", sessionID))
		return nil, ErrNotFound
	}
	return sess, nil
}
