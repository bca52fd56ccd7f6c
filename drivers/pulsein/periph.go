package pulsein

import "periph.io/x/conn/v3/gpio"

type periphLine struct {
	p gpio.PinIO
}

// Periph adapts a periph.io pin (Linux hosts) to a Line.
func Periph(p gpio.PinIO) Line { return periphLine{p: p} }

func (l periphLine) Drive(level bool) error { return l.p.Out(gpio.Level(level)) }
func (l periphLine) Listen() error          { return l.p.In(gpio.PullUp, gpio.NoEdge) }
func (l periphLine) Get() bool              { return l.p.Read() == gpio.High }
