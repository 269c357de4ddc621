// Package clock abstracts the current time so eligibility decisions can be
// tested at exact boundaries.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type realClock struct{}

// Real returns a Clock backed by time.Now, in UTC.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a Clock that always reports the same instant. Set moves it.
type Fixed struct {
	t time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t.UTC()}
}

func (f *Fixed) Now() time.Time {
	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.t = t.UTC()
}

func (f *Fixed) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}
