// Package dht provides a driver for the DHT11 and DHT22 (AM2302)
// humidity/temperature sensors.
//
// The sensors answer a host start signal with a train of pulses; every high
// pulse encodes one bit by its width. The driver triggers the sensor through
// a PulseSource, decodes the 40-bit frame, verifies its checksum and caches
// the last good reading:
//
//	d := dht.NewDHT22(src)
//	if err := d.Measure(); err != nil { ... } // retry later on decode errors
//	t, _ := d.Temperature()
//
// The sensors cannot be sampled faster than about twice a second. Measure
// calls closer together than Config.MinInterval are no-ops.
//
// A Device is not safe for concurrent use; serialise calls per sensor.
package dht

import (
	"time"

	"dhtcode-go/errcode"
	"dhtcode-go/x/timex"

	"tinygo.org/x/drivers"
)

// Defaults for Config.
const (
	DefaultMinInterval    = 500 * time.Millisecond
	DefaultCaptureTimeout = 500 * time.Millisecond
)

// PulseSource captures the sensor's answer to a start signal.
//
// Capture holds the line low for triggerLow, then records alternating
// low/high pulse durations (µs, starting low) until minPulses pulses are in
// hand or timeout elapses. It may return fewer than minPulses pulses.
type PulseSource interface {
	Capture(triggerLow time.Duration, minPulses int, timeout time.Duration) (Pulses, error)
}

// Reading is one validated measurement: relative humidity in percent and
// temperature in °C.
type Reading struct {
	Humidity    float64
	Temperature float64
}

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Clock defaults to the wall clock.
	Clock timex.Clock
	// MinInterval is the shortest spacing between two capture attempts.
	// Default 500 ms.
	MinInterval time.Duration
	// CaptureTimeout bounds one capture. Default 500 ms.
	CaptureTimeout time.Duration
}

// Device is one sensor on one line.
type Device struct {
	src     PulseSource
	profile Profile
	cfg     Config

	last    time.Time // last capture attempt, successful or not
	at      time.Time // start of the attempt that produced reading
	reading Reading
	valid   bool
}

// Compile-time check.
var _ drivers.Sensor = (*Device)(nil)

// New creates a driver for the given sensor variant. It does not touch the
// line; the first Measure does.
func New(src PulseSource, p Profile) *Device {
	d := &Device{src: src, profile: p}
	d.Configure()
	return d
}

// NewDHT11 creates a DHT11 driver.
func NewDHT11(src PulseSource) *Device { return New(src, DHT11) }

// NewDHT22 creates a DHT22 / AM2302 driver.
func NewDHT22(src PulseSource) *Device { return New(src, DHT22) }

// Configure applies optional config; zero fields take their defaults.
func (d *Device) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Clock == nil {
		c.Clock = timex.Real{}
	}
	if c.MinInterval <= 0 {
		c.MinInterval = DefaultMinInterval
	}
	if c.CaptureTimeout <= 0 {
		c.CaptureTimeout = DefaultCaptureTimeout
	}
	d.cfg = c
}

// Profile returns the variant this device decodes.
func (d *Device) Profile() Profile { return d.profile }

func (d *Device) String() string { return d.profile.Name }

// Measure runs one trigger/capture/decode cycle and, when the frame checks
// out, replaces the cached reading. Calls within MinInterval of the previous
// attempt return nil without touching the sensor.
//
// Decode failures are errcode.InsufficientData or errcode.ChecksumMismatch;
// both leave the cached reading untouched and are worth retrying.
func (d *Device) Measure() error {
	now := d.cfg.Clock.Now()
	if !d.last.IsZero() && now.Sub(d.last) < d.cfg.MinInterval {
		return nil
	}
	d.last = now

	p, err := d.src.Capture(d.profile.Trigger, FramePulses, d.cfg.CaptureTimeout)
	if err != nil {
		return err
	}
	f, err := Decode(p)
	if err != nil {
		return err
	}
	if err := f.Verify(); err != nil {
		return err
	}
	d.reading, d.valid, d.at = d.profile.Calibrate(f), true, now
	return nil
}

// Reading returns the cached reading without measuring. ok is false until a
// frame has been decoded successfully.
func (d *Device) Reading() (r Reading, ok bool) { return d.reading, d.valid }

// MeasuredAt returns when the cached reading was captured, or the zero time
// if there is none. Throttled calls do not move it.
func (d *Device) MeasuredAt() time.Time { return d.at }

// Temperature measures (subject to the rate limit) and returns °C.
func (d *Device) Temperature() (float64, error) {
	r, err := d.measured()
	return r.Temperature, err
}

// Humidity measures (subject to the rate limit) and returns %RH.
func (d *Device) Humidity() (float64, error) {
	r, err := d.measured()
	return r.Humidity, err
}

func (d *Device) measured() (Reading, error) {
	if err := d.Measure(); err != nil {
		return Reading{}, err
	}
	if !d.valid {
		return Reading{}, errcode.NoReading
	}
	return d.reading, nil
}

// Update implements drivers.Sensor. Only temperature and humidity are
// measured; other requests are ignored.
func (d *Device) Update(which drivers.Measurement) error {
	if which&(drivers.Temperature|drivers.Humidity) == 0 {
		return nil
	}
	return d.Measure()
}
