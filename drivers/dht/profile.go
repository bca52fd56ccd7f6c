package dht

import "time"

// Profile binds a sensor variant's trigger timing to the way its frame is
// turned into physical values.
type Profile struct {
	Name string
	// Trigger is how long the host holds the line low to start a transfer.
	Trigger time.Duration
	// Resolution is the smallest step the variant reports, in the units of
	// Reading (1 for DHT11, 0.1 for DHT22).
	Resolution float64

	calibrate func(Frame) Reading
	integral  bool
}

// Integral reports whether the variant reports whole units only (DHT11).
func (p Profile) Integral() bool { return p.integral }

// Calibrate converts a verified frame to a reading.
func (p Profile) Calibrate(f Frame) Reading { return p.calibrate(f) }

// DHT11 sends whole %RH in byte 0 and whole °C in byte 2. It needs a long
// (18 ms) start signal.
var DHT11 = Profile{
	Name:       "dht11",
	Trigger:    18 * time.Millisecond,
	Resolution: 1,
	integral:   true,
	calibrate: func(f Frame) Reading {
		return Reading{Humidity: float64(f[0]), Temperature: float64(f[2])}
	},
}

// DHT22 (AM2302) sends tenths of %RH and tenths of °C as 16-bit words.
var DHT22 = Profile{
	Name:       "dht22",
	Trigger:    1000 * time.Microsecond,
	Resolution: 0.1,
	calibrate: func(f Frame) Reading {
		return Reading{
			Humidity:    float64(f.Humidity()) / 10.0,
			Temperature: float64(f.Temperature()) / 10.0,
		}
	},
}

// ProfileByName returns the profile for "dht11" or "dht22" (also "am2302").
func ProfileByName(name string) (Profile, bool) {
	switch name {
	case "dht11", "DHT11":
		return DHT11, true
	case "dht22", "DHT22", "am2302", "AM2302":
		return DHT22, true
	}
	return Profile{}, false
}
