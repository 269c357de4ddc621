package session

import (
	"fmt"
	"time"

	"smartroll-attendance-svc/src/internal/models"
)

// Session is a scheduled attendance window. It is created by an admin
// workflow outside this service and never modified here.
type Session struct {
	ID               string     `json:"id" bson:"_id"`
	StartTime        time.Time  `json:"start_time" bson:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty" bson:"end_time,omitempty"`
	HeartbeatMinutes int        `json:"heartbeat_minutes" bson:"heartbeat_minutes"`
	GraceMinutes     int        `json:"grace_minutes" bson:"grace_minutes"`
}

// ExpiryWindow is how long a heartbeat keeps a student checked in.
func (s *Session) ExpiryWindow() time.Duration {
	return time.Duration(s.HeartbeatMinutes+s.GraceMinutes) * time.Minute
}

// CheckWindow returns a *WindowError when now lies outside the session.
// Both boundaries are inclusive.
func (s *Session) CheckWindow(now time.Time) error {
	if now.Before(s.StartTime) {
		return &WindowError{
			Reason:   models.ErrSessionNotStarted,
			Boundary: s.StartTime,
		}
	}
	if s.EndTime != nil && now.After(*s.EndTime) {
		return &WindowError{
			Reason:   models.ErrSessionEnded,
			Boundary: *s.EndTime,
		}
	}
	return nil
}

// IsOpen reports whether now lies inside the session.
func (s *Session) IsOpen(now time.Time) bool {
	return s.CheckWindow(now) == nil
}

// Validate checks the record invariants.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	if s.EndTime != nil && !s.EndTime.After(s.StartTime) {
		return fmt.Errorf("session %s: end time %s is not after start time %s",
			s.ID, s.EndTime.Format(time.RFC3339), s.StartTime.Format(time.RFC3339))
	}
	if s.HeartbeatMinutes < 0 || s.GraceMinutes < 0 {
		return fmt.Errorf("session %s: negative heartbeat or grace minutes", s.ID)
	}
	return nil
}

// WindowError reports a request outside the session's time window.
type WindowError struct {
	Reason   error // models.ErrSessionNotStarted or models.ErrSessionEnded
	Boundary time.Time
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("%v: boundary=%s", e.Reason, e.Boundary.UTC().Format(time.RFC3339))
}

func (e *WindowError) Unwrap() error {
	return e.Reason
}
