package dht

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

// Env converts the reading to periph.io physical units. Pressure is left
// untouched; the sensors do not measure it.
func (r Reading) Env(e *physic.Env) {
	e.Temperature = physic.ZeroCelsius + physic.Temperature(deci(r.Temperature))*physic.Celsius/10
	e.Humidity = physic.RelativeHumidity(deci(r.Humidity)) * physic.PercentRH / 10
}

// Sense measures (subject to the rate limit) and fills temperature and
// humidity in e.
func (d *Device) Sense(e *physic.Env) error {
	r, err := d.measured()
	if err != nil {
		return err
	}
	r.Env(e)
	return nil
}

// Precision sets the resolution of each reported quantity.
func (d *Device) Precision(e *physic.Env) {
	step := int64(math.Round(d.profile.Resolution * 10))
	e.Temperature = physic.Temperature(step) * physic.Celsius / 10
	e.Humidity = physic.RelativeHumidity(step) * physic.PercentRH / 10
	e.Pressure = 0
}

func deci(v float64) int64 { return int64(math.Round(v * 10)) }
