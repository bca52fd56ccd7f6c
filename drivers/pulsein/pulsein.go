// Package pulsein captures pulse trains on a single GPIO line by busy-reading
// its level after a host start signal, the way single-wire sensors such as
// the DHT family are read.
//
//	c := pulsein.New(pulsein.Periph(pin))
//	p, err := c.Capture(time.Millisecond, 80, 500*time.Millisecond)
//
// A Capturer implements dht.PulseSource.
package pulsein

import (
	"runtime/debug"
	"sync/atomic"
	"time"

	"dhtcode-go/drivers/dht"
	"dhtcode-go/errcode"
	"dhtcode-go/x/timex"
)

// Line is one bidirectional GPIO line with an external or internal pull-up.
type Line interface {
	// Drive switches the line to output at level.
	Drive(level bool) error
	// Listen switches the line to input with pull-up.
	Listen() error
	// Get samples the current level.
	Get() bool
}

// Config controls capture timing. All fields are optional.
type Config struct {
	// Clock defaults to the wall clock.
	Clock timex.Clock
	// IdleCutoff ends a capture once the line has held one level this long.
	// Default 1 ms.
	IdleCutoff time.Duration
	// Preamble is the number of leading pulses dropped from every capture
	// (the sensor's acknowledge low/high pair). Default 2; negative keeps
	// all pulses.
	Preamble int
}

// Capturer owns a Line for the duration of each capture.
type Capturer struct {
	line Line
	cfg  Config
	busy atomic.Bool
}

// Compile-time check.
var _ dht.PulseSource = (*Capturer)(nil)

// New creates a Capturer. The line is left untouched until Capture.
func New(line Line, cfgs ...Config) *Capturer {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Clock == nil {
		c.Clock = timex.Real{}
	}
	if c.IdleCutoff <= 0 {
		c.IdleCutoff = time.Millisecond
	}
	switch {
	case c.Preamble == 0:
		c.Preamble = 2
	case c.Preamble < 0:
		c.Preamble = 0
	}
	return &Capturer{line: line, cfg: c}
}

// Capture drives the line low for triggerLow, releases it and records pulse
// durations in microseconds, starting with the first low pulse after the
// preamble. It stops once minPulses pulses are recorded, the line goes idle,
// or timeout elapses, and returns what it has. The timeout runs from the
// start of the trigger. Durations saturate at 65535.
//
// The line is always driven back high before Capture returns. Overlapping
// captures on one Capturer fail with errcode.PinInUse.
func (c *Capturer) Capture(triggerLow time.Duration, minPulses int, timeout time.Duration) (p dht.Pulses, err error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, errcode.PinInUse
	}
	defer c.busy.Store(false)
	defer func() {
		if rerr := c.line.Drive(true); rerr != nil && err == nil {
			err = &errcode.E{C: errcode.Error, Op: "pulsein.release", Err: rerr}
		}
	}()

	want := minPulses + c.cfg.Preamble
	pulses := make(dht.Pulses, 0, want)
	clk := c.cfg.Clock

	// No collections during the timing-critical part.
	gc := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(gc)

	// The timeout bounds the whole call, start signal included.
	start := clk.Now()
	if err := c.line.Drive(false); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "pulsein.trigger", Err: err}
	}
	clk.Sleep(triggerLow)
	if err := c.line.Listen(); err != nil {
		return nil, &errcode.E{C: errcode.Error, Op: "pulsein.listen", Err: err}
	}

	// The pull-up holds the line high until the sensor answers; that wait is
	// not a pulse.
	for c.line.Get() {
		if clk.Since(start) > timeout {
			return pulses, nil
		}
	}
	level := false
	edge := clk.Now()
	for len(pulses) < want {
		l := c.line.Get()
		now := clk.Now()
		if now.Sub(start) > timeout {
			break
		}
		if l == level {
			if now.Sub(edge) > c.cfg.IdleCutoff {
				break
			}
			continue
		}
		pulses = append(pulses, micros(now.Sub(edge)))
		level, edge = l, now
	}

	if len(pulses) <= c.cfg.Preamble {
		return pulses[:0], nil
	}
	return pulses[c.cfg.Preamble:], nil
}

func micros(d time.Duration) uint16 {
	us := d / time.Microsecond
	if us > 0xFFFF {
		return 0xFFFF
	}
	return uint16(us)
}
