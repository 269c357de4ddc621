package attendance

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"smartroll-attendance-svc/src/internal/clock"
	"smartroll-attendance-svc/src/internal/eligibility"
	"smartroll-attendance-svc/src/internal/heartbeat"
	"smartroll-attendance-svc/src/internal/models"
	"smartroll-attendance-svc/src/internal/session"
	"smartroll-attendance-svc/src/internal/student"
	"smartroll-attendance-svc/src/internal/subnet"

	"github.com/sirupsen/logrus"
)

type Service interface {
	CheckIn(ctx context.Context, req *CheckInRequest) (*CheckInResult, error)
	RouterPush(ctx context.Context, req *RouterPushRequest) (*RouterPushResult, error)
	GetStatus(ctx context.Context, deviceAddress, sessionID string) (*StatusResult, error)
	ListLogs(ctx context.Context, sessionID string) ([]*LogEntry, error)
}

// ActivityPublisher receives an event after every committed write.
type ActivityPublisher interface {
	PublishActivity(message models.ActivityMessage) error
}

type Dependencies struct {
	Students   student.Repository
	Sessions   session.Registry
	Heartbeats heartbeat.Repository
	Subnets    subnet.Authority
	Engine     eligibility.Engine
	Publisher  ActivityPublisher // optional
	Clock      clock.Clock
}

type attendanceService struct {
	students   student.Repository
	sessions   session.Registry
	heartbeats heartbeat.Repository
	subnets    subnet.Authority
	engine     eligibility.Engine
	publisher  ActivityPublisher
	clock      clock.Clock
}

func NewAttendanceService(deps Dependencies) Service {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &attendanceService{
		students:   deps.Students,
		sessions:   deps.Sessions,
		heartbeats: deps.Heartbeats,
		subnets:    deps.Subnets,
		engine:     deps.Engine,
		publisher:  deps.Publisher,
		clock:      clk,
	}
}

// SourceAddress picks the address checked against the approved subnets.
// The device's self-reported address wins over the transport peer, which
// may be a shared gateway. Forwarding headers are never consulted.
func SourceAddress(claimed, peer string) string {
	if claimed = strings.TrimSpace(claimed); claimed != "" {
		return claimed
	}
	return strings.TrimSpace(peer)
}

func (s *attendanceService) CheckIn(ctx context.Context, req *CheckInRequest) (*CheckInResult, error) {
	address := student.NormalizeAddress(req.DeviceAddress)
	sessionID := strings.TrimSpace(req.SessionID)
	if address == "" || sessionID == "" {
		return nil, models.ErrMissingFields
	}

	fields := logrus.Fields{
		"session_id": sessionID,
		"address":    address,
	}

	source := SourceAddress(req.ClaimedSourceAddress, req.PeerAddress)
	if !s.subnets.IsTrusted(ctx, source) {
		logrus.WithFields(fields).WithField("source_address", source).Warn("Check-in rejected: untrusted network")
		return nil, models.ErrUntrustedNetwork
	}

	st, err := s.students.GetByAddress(ctx, address)
	if err != nil {
		logGateFailure(fields, "unknown device", err)
		return nil, err
	}
	fields["student_id"] = st.ID

	sess, err := s.openSession(ctx, sessionID, fields)
	if err != nil {
		return nil, err
	}

	record, err := s.heartbeats.Append(ctx, heartbeat.Entry{
		SessionID: sessionID,
		StudentID: st.ID,
		Address:   address,
	})
	if err != nil {
		logrus.WithError(err).WithFields(fields).Error("Check-in commit failed")
		return nil, models.ErrDatabaseInsert
	}

	logrus.WithFields(fields).WithField("heartbeat_id", record.ID).Info("Check-in committed")

	s.publish(models.ActivityMessage{
		StudentID:   st.ID,
		SessionID:   sessionID,
		ServiceName: models.ServiceAttendanceCheckIn,
		Action:      models.ActionHeartbeatRecorded,
		Address:     address,
		IPAddress:   source,
		Timestamp:   record.Timestamp,
	})

	// The heartbeat is committed, so the call succeeds whatever the read path does.
	status, err := s.engine.Evaluate(ctx, st.ID, sessionID)
	if err != nil {
		logrus.WithError(err).WithFields(fields).Warn("Eligibility evaluation failed after check-in, using committed heartbeat")
		status = eligibility.FromHeartbeat(sess, record.Timestamp, s.clock.Now())
	}

	return &CheckInResult{
		Message:     MessageCheckInRecorded,
		StudentName: st.Name,
		Status:      *status,
	}, nil
}

// RouterPush records a heartbeat for every listed device that belongs to a
// known student. Unknown devices are skipped without error. The caller must
// already have passed the admin check; approved subnets are not consulted.
func (s *attendanceService) RouterPush(ctx context.Context, req *RouterPushRequest) (*RouterPushResult, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	fields := logrus.Fields{
		"session_id":   sessionID,
		"device_count": len(req.DeviceList),
	}

	// A blank id names no session.
	if sessionID == "" {
		logGateFailure(fields, "session lookup", models.ErrSessionNotFound)
		return nil, models.ErrSessionNotFound
	}

	if _, err := s.openSession(ctx, sessionID, fields); err != nil {
		return nil, err
	}

	entries := make([]heartbeat.Entry, 0, len(req.DeviceList))
	for _, device := range req.DeviceList {
		address := student.NormalizeAddress(device.Address)
		if address == "" {
			continue
		}

		st, err := s.students.GetByAddress(ctx, address)
		if errors.Is(err, models.ErrStudentNotFound) {
			continue
		}
		if err != nil {
			logrus.WithError(err).WithFields(fields).Error("Router push aborted: student lookup failed")
			return nil, err
		}

		entries = append(entries, heartbeat.Entry{
			SessionID: sessionID,
			StudentID: st.ID,
			Address:   address,
		})
	}

	records, err := s.heartbeats.AppendBatch(ctx, entries)
	if err != nil {
		logrus.WithError(err).WithFields(fields).Error("Router push commit failed")
		return nil, models.ErrDatabaseInsert
	}

	logrus.WithFields(fields).WithField("recorded", len(records)).Info("Router push committed")

	if len(records) > 0 {
		s.publish(models.ActivityMessage{
			SessionID:   sessionID,
			ServiceName: models.ServiceAttendanceRouterPush,
			Action:      models.ActionRouterPushIngested,
			Metadata:    map[string]string{"count": strconv.Itoa(len(records))},
			Timestamp:   records[0].Timestamp,
		})
	}

	return &RouterPushResult{
		Message: MessageRouterDataIngested,
		Count:   len(records),
	}, nil
}

func (s *attendanceService) GetStatus(ctx context.Context, deviceAddress, sessionID string) (*StatusResult, error) {
	address := student.NormalizeAddress(deviceAddress)
	sessionID = strings.TrimSpace(sessionID)
	if address == "" || sessionID == "" {
		return nil, models.ErrMissingFields
	}

	st, err := s.students.GetByAddress(ctx, address)
	if err != nil {
		logGateFailure(logrus.Fields{"session_id": sessionID, "address": address}, "unknown device", err)
		return nil, err
	}

	status, err := s.engine.Evaluate(ctx, st.ID, sessionID)
	if err != nil {
		return nil, err
	}

	return &StatusResult{
		StudentID:   st.ID,
		StudentName: st.Name,
		SessionID:   sessionID,
		Status:      *status,
	}, nil
}

func (s *attendanceService) ListLogs(ctx context.Context, sessionID string) ([]*LogEntry, error) {
	records, err := s.heartbeats.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entries := make([]*LogEntry, len(records))
	for i, r := range records {
		entries[i] = &LogEntry{
			StudentID: r.StudentID,
			Address:   r.Address,
			Status:    r.Status,
			Timestamp: r.Timestamp,
		}
	}
	return entries, nil
}

// openSession resolves the session and checks that it is running now.
func (s *attendanceService) openSession(ctx context.Context, sessionID string, fields logrus.Fields) (*session.Session, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		logGateFailure(fields, "session lookup", err)
		return nil, err
	}

	if err := sess.CheckWindow(s.clock.Now()); err != nil {
		logGateFailure(fields, "session window", err)
		return nil, err
	}

	return sess, nil
}

func (s *attendanceService) publish(message models.ActivityMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(message); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"session_id": message.SessionID,
			"action":     message.Action,
		}).Warn("Activity event not published")
	}
}

func logGateFailure(fields logrus.Fields, gate string, err error) {
	entry := logrus.WithFields(fields).WithField("gate", gate).WithError(err)
	if errors.Is(err, models.ErrDatabaseQuery) {
		entry.Error("Request failed at gate")
		return
	}
	entry.Warn("Request rejected at gate")
}
