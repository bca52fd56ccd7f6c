package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Clock is the slice of package time that timing-sensitive drivers use.
// Tests substitute a deterministic implementation.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	Sleep(d time.Duration)
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time                  { return time.Now() }
func (Real) Since(t time.Time) time.Duration { return time.Since(t) }
func (Real) Sleep(d time.Duration)           { time.Sleep(d) }

// Manual is a Clock that only moves when told to. Sleep advances it.
// It is not safe for concurrent use.
type Manual struct {
	T time.Time
}

// NewManual returns a Manual clock starting at an arbitrary fixed instant.
func NewManual() *Manual {
	return &Manual{T: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *Manual) Now() time.Time                  { return m.T }
func (m *Manual) Since(t time.Time) time.Duration { return m.T.Sub(t) }
func (m *Manual) Sleep(d time.Duration)           { m.Advance(d) }

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	if d > 0 {
		m.T = m.T.Add(d)
	}
}
