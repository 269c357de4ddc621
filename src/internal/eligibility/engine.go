// Package eligibility derives whether a student currently counts as checked
// in to a session from the session's time window and the student's most
// recent heartbeat.
package eligibility

import (
	"context"
	"errors"
	"time"

	"smartroll-attendance-svc/src/internal/clock"
	"smartroll-attendance-svc/src/internal/heartbeat"
	"smartroll-attendance-svc/src/internal/models"
	"smartroll-attendance-svc/src/internal/session"
)

type SessionFinder interface {
	GetByID(ctx context.Context, sessionID string) (*session.Session, error)
}

type HeartbeatFinder interface {
	Latest(ctx context.Context, sessionID, studentID string) (*heartbeat.Record, error)
}

type Engine interface {
	Evaluate(ctx context.Context, studentID, sessionID string) (*Status, error)
}

type engine struct {
	sessions   SessionFinder
	heartbeats HeartbeatFinder
	clock      clock.Clock
}

func NewEngine(sessions SessionFinder, heartbeats HeartbeatFinder, clk clock.Clock) Engine {
	return &engine{
		sessions:   sessions,
		heartbeats: heartbeats,
		clock:      clk,
	}
}

// Evaluate has no side effects. The returned error is non-nil only when a
// store could not be read; every business outcome is a Status.
//
// Gates are checked in a fixed order, so a session that has not started
// reports ReasonSessionNotStarted whatever its heartbeat history.
func (e *engine) Evaluate(ctx context.Context, studentID, sessionID string) (*Status, error) {
	s, err := e.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, models.ErrSessionNotFound) {
		return &Status{Reason: ReasonSessionNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	if reason, closed := windowReason(s, now); closed {
		return &Status{Reason: reason}, nil
	}

	last, err := e.heartbeats.Latest(ctx, sessionID, studentID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return &Status{Reason: ReasonNoHeartbeatRecorded}, nil
	}
	if err != nil {
		return nil, err
	}

	return evaluateHeartbeat(s, last.Timestamp, now), nil
}

func windowReason(s *session.Session, now time.Time) (Reason, bool) {
	err := s.CheckWindow(now)
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, models.ErrSessionNotStarted):
		return ReasonSessionNotStarted, true
	default:
		return ReasonSessionEnded, true
	}
}

// FromHeartbeat evaluates a session that is known to be open against a
// heartbeat at last.
func FromHeartbeat(s *session.Session, last, now time.Time) *Status {
	return evaluateHeartbeat(s, last, now)
}

// evaluateHeartbeat applies the expiry rule: a heartbeat at T keeps the
// student checked in up to and including T + heartbeat + grace minutes.
func evaluateHeartbeat(s *session.Session, last, now time.Time) *Status {
	lastHeartbeat := last
	remaining := s.ExpiryWindow() - now.Sub(last)

	if remaining < 0 {
		return &Status{
			Reason:        ReasonHeartbeatExpired,
			LastHeartbeat: &lastHeartbeat,
		}
	}

	minutes := int(remaining / time.Minute)
	return &Status{
		CheckedIn:       true,
		Reason:          ReasonActive,
		LastHeartbeat:   &lastHeartbeat,
		TimeUntilExpiry: &minutes,
	}
}
