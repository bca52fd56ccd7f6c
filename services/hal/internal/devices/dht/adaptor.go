// services/hal/internal/devices/dht/adaptor.go
package dht

import (
	"context"
	"math"
	"time"

	drv "dhtcode-go/drivers/dht"
	"dhtcode-go/errcode"
	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/services/hal/internal/util"
)

// sensor is the slice of the driver the adaptor uses.
type sensor interface {
	Measure() error
	Reading() (drv.Reading, bool)
	MeasuredAt() time.Time
	Profile() drv.Profile
}

type adaptor struct {
	id  string
	dev sensor
}

func newAdaptor(id string, dev sensor) *adaptor {
	return &adaptor{id: id, dev: dev}
}

func (a *adaptor) ID() string { return a.id }

func (a *adaptor) Capabilities() []halcore.CapInfo {
	p := a.dev.Profile()
	return []halcore.CapInfo{
		{Kind: "temperature", Info: map[string]any{"unit": "C", "precision": p.Resolution, "schema_version": 1, "driver": p.Name}},
		{Kind: "humidity", Info: map[string]any{"unit": "%RH", "precision": p.Resolution, "schema_version": 1, "driver": p.Name}},
	}
}

// Trigger runs the whole capture; the sample is ready as soon as it returns.
// A rate-limited Measure with nothing cached reports errcode.Busy so the
// worker tries again once the window has passed.
func (a *adaptor) Trigger(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := a.dev.Measure(); err != nil {
		return 0, err
	}
	if _, ok := a.dev.Reading(); !ok {
		return 0, &errcode.E{C: errcode.Busy, Op: "dht.trigger", Msg: "rate limited, no reading yet"}
	}
	return 0, nil
}

func (a *adaptor) Collect(ctx context.Context) (halcore.Sample, error) {
	r, ok := a.dev.Reading()
	if !ok {
		return nil, util.Errf("%w: %w", halcore.ErrNotReady, errcode.NoReading)
	}
	return sampleOf(r, a.dev.MeasuredAt().UnixMilli()), nil
}

// Control supports:
//
//	"last" → cached sample, no bus traffic
//	"read" → measure (rate limited), then the cached sample
func (a *adaptor) Control(kind, method string, payload any) (any, error) {
	if kind != "temperature" && kind != "humidity" {
		return nil, halcore.ErrUnsupported
	}
	switch method {
	case "read":
		if err := a.dev.Measure(); err != nil {
			return nil, err
		}
	case "last":
	default:
		return nil, halcore.ErrUnsupported
	}
	r, ok := a.dev.Reading()
	if !ok {
		return nil, errcode.NoReading
	}
	for _, rd := range sampleOf(r, a.dev.MeasuredAt().UnixMilli()) {
		if rd.Kind == kind {
			return rd.Payload, nil
		}
	}
	return nil, halcore.ErrUnsupported
}

func sampleOf(r drv.Reading, ts int64) halcore.Sample {
	return halcore.Sample{
		{Kind: "temperature", Payload: map[string]any{"deci_c": deci(r.Temperature), "ts_ms": ts}, TsMs: ts},
		{Kind: "humidity", Payload: map[string]any{"deci_percent": deci(r.Humidity), "ts_ms": ts}, TsMs: ts},
	}
}

func deci(v float64) int32 { return int32(math.Round(v * 10)) }
