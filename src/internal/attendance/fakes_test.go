package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"smartroll-attendance-svc/src/internal/clock"
	"smartroll-attendance-svc/src/internal/eligibility"
	"smartroll-attendance-svc/src/internal/heartbeat"
	"smartroll-attendance-svc/src/internal/models"
	"smartroll-attendance-svc/src/internal/session"
	"smartroll-attendance-svc/src/internal/student"
	"smartroll-attendance-svc/src/internal/subnet"
)

type memStudents struct {
	byAddress map[string]*student.Student
	err       error
}

func (m *memStudents) GetByAddress(_ context.Context, address string) (*student.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.byAddress[student.NormalizeAddress(address)]
	if !ok {
		return nil, models.ErrStudentNotFound
	}
	return s, nil
}

func (m *memStudents) GetByEmail(context.Context, string) (*student.Student, error) {
	return nil, models.ErrStudentNotFound
}

type memSessions map[string]*session.Session

func (m memSessions) GetByID(_ context.Context, id string) (*session.Session, error) {
	s, ok := m[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return s, nil
}

type memPrefixes []string

func (m memPrefixes) ListPrefixes(context.Context) ([]string, error) {
	return m, nil
}

// memHeartbeats is an in-memory append-only heartbeat store.
type memHeartbeats struct {
	mu        sync.Mutex
	clock     clock.Clock
	records   []*heartbeat.Record
	seq       int
	appendErr error
}

func (m *memHeartbeats) newRecord(e heartbeat.Entry) *heartbeat.Record {
	m.seq++
	return &heartbeat.Record{
		ID:        fmt.Sprintf("hb-%03d", m.seq),
		SessionID: e.SessionID,
		StudentID: e.StudentID,
		Address:   e.Address,
		Status:    heartbeat.StatusHeartbeat,
		Timestamp: m.clock.Now(),
	}
}

func (m *memHeartbeats) Append(_ context.Context, e heartbeat.Entry) (*heartbeat.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	r := m.newRecord(e)
	m.records = append(m.records, r)
	return r, nil
}

func (m *memHeartbeats) AppendBatch(_ context.Context, entries []heartbeat.Entry) ([]*heartbeat.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	if len(entries) == 0 {
		return nil, nil
	}
	batch := make([]*heartbeat.Record, len(entries))
	for i, e := range entries {
		batch[i] = m.newRecord(e)
	}
	m.records = append(m.records, batch...)
	return batch, nil
}

func (m *memHeartbeats) Latest(ctx context.Context, sessionID, studentID string) (*heartbeat.Record, error) {
	all, _ := m.ListBySession(ctx, sessionID)
	for _, r := range all {
		if r.StudentID == studentID {
			return r, nil
		}
	}
	return nil, models.ErrRecordNotFound
}

func (m *memHeartbeats) ListBySession(_ context.Context, sessionID string) ([]*heartbeat.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*heartbeat.Record, 0)
	for _, r := range m.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *memHeartbeats) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type recordingPublisher struct {
	messages []models.ActivityMessage
	err      error
}

func (p *recordingPublisher) PublishActivity(msg models.ActivityMessage) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	clock      *clock.Fixed
	students   *memStudents
	sessions   memSessions
	heartbeats *memHeartbeats
	publisher  *recordingPublisher
	service    Service
}

// newFixture builds a service around a 09:00-10:00 session "s-1" with a
// 5 minute heartbeat and 2 minutes of grace, two registered students and
// the approved prefix "192.168.0.".
func newFixture(now time.Time) *fixture {
	clk := clock.NewFixed(now)
	end := at(10, 0)

	f := &fixture{
		clock: clk,
		students: &memStudents{byAddress: map[string]*student.Student{
			"AA:AA:AA:AA:AA:01": {ID: "st-1", Name: "Ada Lovelace", MacAddress: "AA:AA:AA:AA:AA:01"},
			"AA:AA:AA:AA:AA:02": {ID: "st-2", Name: "Alan Turing", MacAddress: "AA:AA:AA:AA:AA:02"},
		}},
		sessions: memSessions{
			"s-1": {ID: "s-1", StartTime: at(9, 0), EndTime: &end, HeartbeatMinutes: 5, GraceMinutes: 2},
		},
		heartbeats: &memHeartbeats{clock: clk},
		publisher:  &recordingPublisher{},
	}

	f.service = NewAttendanceService(Dependencies{
		Students:   f.students,
		Sessions:   f.sessions,
		Heartbeats: f.heartbeats,
		Subnets:    subnet.NewAuthority(memPrefixes{"192.168.0."}),
		Engine:     eligibility.NewEngine(f.sessions, f.heartbeats, clk),
		Publisher:  f.publisher,
		Clock:      clk,
	})
	return f
}
