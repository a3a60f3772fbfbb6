// File: services/session/store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guestara/models"
)

const (
	// DefaultTTL is the fixed expiry window for booking sessions. Updates
	// reset the window to a full 24h from the write.
	DefaultTTL = 24 * time.Hour

	sessionKeyPrefix = "booking_session:"
	callerKeyPrefix  = "caller_session:"
)

// ErrNotFound is returned when no session exists for the given key or
// caller. It covers both expired and never-created sessions.
var ErrNotFound = errors.New("booking session not found or expired")

// Store is durable, expiring storage for booking sessions, plus the reverse
// index that resolves a caller's phone number to their most recent session.
// All operations are atomic at single-session granularity.
type Store interface {
	// Create persists a new session and points the caller index at it.
	// Overwriting an existing session id is allowed (idempotent create).
	Create(ctx context.Context, sess *models.BookingSession) error
	// Get fetches a session by id, or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*models.BookingSession, error)
	// Update applies mutate to the stored session, bumps updated_at, and
	// resets the TTL to a full window. Returns the mutated session.
	Update(ctx context.Context, sessionID string, mutate func(*models.BookingSession)) (*models.BookingSession, error)
	// Delete removes a session and its caller-index entry.
	Delete(ctx context.Context, sessionID string) error
	// Extend pushes the session expiry out by the given number of hours.
	Extend(ctx context.Context, sessionID string, hours int) error
	// ResolveByCaller maps a caller's normalized phone number to their most
	// recent session, or ErrNotFound.
	ResolveByCaller(ctx context.Context, callerPhone string) (*models.BookingSession, error)
}

// NewSessionID derives a session id from the creation instant. Two sessions
// created within the same second share an id; the caller index makes the
// later one win, which is the documented most-recent-wins policy.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("booking_%d", now.Unix())
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func callerKey(callerPhone string) string {
	return callerKeyPrefix + callerPhone
}
