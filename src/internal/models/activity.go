package models

import "time"

type ActivityMessage struct {
	StudentID   string            `json:"student_id,omitempty"`
	SessionID   string            `json:"session_id"`
	ServiceName string            `json:"service_name"`
	Action      string            `json:"action"`
	Address     string            `json:"address,omitempty"`
	IPAddress   string            `json:"ip_address,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Activity action constants
const (
	ActionHeartbeatRecorded  = "heartbeat_recorded"
	ActionRouterPushIngested = "router_push_ingested"
)

// Service name constants
const (
	ServiceAttendanceCheckIn    = "attendance.service.check_in"
	ServiceAttendanceRouterPush = "attendance.service.router_push"
)
