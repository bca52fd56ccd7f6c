// services/hal/internal/platform/factories_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"dhtcode-go/services/hal/internal/halcore"
)

// DefaultPinFactory resolves "GPIO<n>" through periph.io's pin registry.
// periph.io/x/host/v3 Init must have run for real hardware pins to exist.
func DefaultPinFactory() halcore.PinFactory { return PeriphPinFactory{} }

// PeriphPinFactory maps logical numbers to registered periph.io pins.
type PeriphPinFactory struct {
	// Prefix defaults to "GPIO" (Raspberry Pi BCM naming).
	Prefix string
}

func (f PeriphPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	if n < 0 {
		return nil, false
	}
	prefix := f.Prefix
	if prefix == "" {
		prefix = "GPIO"
	}
	p := gpioreg.ByName(prefix + strconv.Itoa(n))
	if p == nil {
		return nil, false
	}
	return &periphPin{p: p, n: n}, true
}

type periphPin struct {
	p gpio.PinIO
	n int
}

func (r *periphPin) ConfigureInput(pull halcore.Pull) error {
	return r.p.In(toPeriphPull(pull), gpio.NoEdge)
}

func (r *periphPin) ConfigureOutput(initial bool) error { return r.p.Out(gpio.Level(initial)) }

func (r *periphPin) Set(level bool) { _ = r.p.Out(gpio.Level(level)) }
func (r *periphPin) Get() bool      { return r.p.Read() == gpio.High }
func (r *periphPin) Number() int    { return r.n }

func toPeriphPull(p halcore.Pull) gpio.Pull {
	switch p {
	case halcore.PullUp:
		return gpio.PullUp
	case halcore.PullDown:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}
