//go:build rp2040 || rp2350

package pulsein

import "machine"

type machineLine struct {
	p machine.Pin
}

// Machine adapts a TinyGo pin to a Line.
func Machine(p machine.Pin) Line { return machineLine{p: p} }

func (l machineLine) Drive(level bool) error {
	l.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	l.p.Set(level)
	return nil
}

func (l machineLine) Listen() error {
	l.p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (l machineLine) Get() bool { return l.p.Get() }
