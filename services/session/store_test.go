package session

import (
	"testing"
	"time"
)

func TestNewSessionIDFromInstant(t *testing.T) {
	at := time.Date(2026, time.September, 20, 14, 30, 0, 0, time.UTC)
	got := NewSessionID(at)
	want := "booking_1789914600"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKeyPrefixes(t *testing.T) {
	if got := sessionKey("booking_123"); got != "booking_session:booking_123" {
		t.Errorf("session key = %q", got)
	}
	if got := callerKey("14155550134"); got != "caller_session:14155550134" {
		t.Errorf("caller key = %q", got)
	}
}
