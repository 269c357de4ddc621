package attendance

import (
	"time"

	"smartroll-attendance-svc/src/internal/eligibility"
)

const (
	MessageCheckInRecorded    = "check_in_recorded"
	MessageRouterDataIngested = "router_data_ingested"
)

type CheckInRequest struct {
	DeviceAddress        string `json:"device_address"`
	SessionID            string `json:"session_id"`
	ClaimedSourceAddress string `json:"claimed_source_address,omitempty"`
	// PeerAddress is the transport-level remote address, set by the handler.
	PeerAddress string `json:"-"`
}

type CheckInResult struct {
	Message     string `json:"message"`
	StudentName string `json:"student_name"`
	eligibility.Status
}

type Device struct {
	Address string `json:"address"`
}

type RouterPushRequest struct {
	SessionID  string   `json:"session_id"`
	DeviceList []Device `json:"device_list"`
}

type RouterPushResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

type StatusResult struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	SessionID   string `json:"session_id"`
	eligibility.Status
}

type LogEntry struct {
	StudentID string    `json:"student_id"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
