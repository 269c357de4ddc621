package heartbeat

import "time"

// StatusHeartbeat is the only status tag written today.
const StatusHeartbeat = "Heartbeat"

// Record is one proof-of-presence event. Records are never updated or deleted.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	SessionID string    `json:"session_id" bson:"session_id"`
	StudentID string    `json:"student_id" bson:"student_id"`
	Address   string    `json:"address" bson:"mac"`
	Status    string    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Entry is what callers supply; the store assigns ID, status and timestamp.
type Entry struct {
	SessionID string
	StudentID string
	Address   string
}
