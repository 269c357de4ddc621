package eligibility

import "time"

type Reason string

const (
	ReasonSessionNotFound     Reason = "session_not_found"
	ReasonSessionNotStarted   Reason = "session_not_started"
	ReasonSessionEnded        Reason = "session_ended"
	ReasonNoHeartbeatRecorded Reason = "no_heartbeat_recorded"
	ReasonHeartbeatExpired    Reason = "heartbeat_expired"
	ReasonActive              Reason = "active"
)

// Status is derived on every query and never stored.
type Status struct {
	CheckedIn       bool       `json:"checked_in"`
	Reason          Reason     `json:"reason"`
	LastHeartbeat   *time.Time `json:"last_heartbeat"`
	TimeUntilExpiry *int       `json:"time_until_expiry"`
}
