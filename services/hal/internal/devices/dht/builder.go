// services/hal/internal/devices/dht/builder.go
package dht

import (
	drv "dhtcode-go/drivers/dht"
	"dhtcode-go/drivers/pulsein"
	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/services/hal/internal/halerr"
	"dhtcode-go/services/hal/internal/registry"
	"dhtcode-go/services/hal/internal/util"
)

// Register both variants with the registry.
func init() {
	registry.RegisterBuilder("dht11", builder{profile: drv.DHT11})
	registry.RegisterBuilder("dht22", builder{profile: drv.DHT22})
}

type builder struct {
	profile drv.Profile
}

func (b builder) Build(in registry.BuildInput) (registry.BuildOutput, error) {
	if in.Pins == nil {
		return registry.BuildOutput{}, halerr.ErrNoPins
	}
	// Params: { "pin": 15 }
	var p struct {
		Pin *int `json:"pin"`
	}
	if err := util.DecodeJSON(in.ParamsJSON, &p); err != nil {
		return registry.BuildOutput{}, util.Errf("%w: %s: %v", halerr.ErrInvalidParams, b.profile.Name, err)
	}
	if p.Pin == nil {
		return registry.BuildOutput{}, util.Errf("%w: %s: missing pin", halerr.ErrInvalidParams, b.profile.Name)
	}
	pin, ok := in.Pins.ByNumber(*p.Pin)
	if !ok {
		return registry.BuildOutput{}, util.Errf("%w: %d", halerr.ErrUnknownPin, *p.Pin)
	}
	// Idle the line high so the first trigger sees a clean falling edge.
	if err := pin.ConfigureOutput(true); err != nil {
		return registry.BuildOutput{}, err
	}
	dev := drv.New(pulsein.New(gpioLine{pin: pin}), b.profile)
	return registry.BuildOutput{
		Adaptor: newAdaptor(in.DeviceID, dev),
		Pin:     *p.Pin,
	}, nil
}

// gpioLine drives a HAL pin as a pulse-capture line.
type gpioLine struct {
	pin halcore.GPIOPin
}

func (l gpioLine) Drive(level bool) error { return l.pin.ConfigureOutput(level) }
func (l gpioLine) Listen() error          { return l.pin.ConfigureInput(halcore.PullUp) }
func (l gpioLine) Get() bool              { return l.pin.Get() }
