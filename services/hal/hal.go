// services/hal/hal.go
package hal

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dhtcode-go/services/hal/config"
	"dhtcode-go/services/hal/internal/halcore"
	"dhtcode-go/services/hal/internal/halerr"
	"dhtcode-go/services/hal/internal/platform"
	"dhtcode-go/services/hal/internal/registry"
	"dhtcode-go/services/hal/internal/util"
	"dhtcode-go/services/hal/internal/worker"

	_ "dhtcode-go/services/hal/internal/devices/dht" // registers dht11/dht22
)

// Errors callers can match with errors.Is.
var (
	ErrUnknownDevice = halerr.ErrNoAdaptor
	ErrUnknownType   = halerr.ErrUnknownType
	ErrPinInUse      = halerr.ErrPinInUse
	ErrBusy          = halerr.ErrBusy
	ErrUnsupported   = halcore.ErrUnsupported
)

// HAL owns the configured sensors. Each device is driven by at most one
// goroutine at a time: the measure worker and Control share a per-device
// lock.
type HAL struct {
	pins    halcore.PinFactory
	w       *worker.MeasureWorker
	results chan halcore.Result

	mu       sync.Mutex
	devices  map[string]*device
	pinOwner map[int]string
	waiters  map[string][]chan halcore.Result
}

type device struct {
	typ     string
	adaptor *lockedAdaptor
}

// New creates a HAL over the given pins. Call Start before Read.
func New(pins PinFactory, cfg WorkerConfig) *HAL {
	results := make(chan halcore.Result, 16)
	return &HAL{
		pins:     pins,
		w:        worker.New(cfg, results),
		results:  results,
		devices:  map[string]*device{},
		pinOwner: map[int]string{},
		waiters:  map[string][]chan halcore.Result{},
	}
}

// NewDefault uses the platform pin factory (periph.io on hosts, machine pins
// on RP2) and default worker timings.
func NewDefault() *HAL { return New(platform.DefaultPinFactory(), WorkerConfig{}) }

// Start runs the measure worker and result fan-out until ctx ends.
func (h *HAL) Start(ctx context.Context) {
	h.w.Start(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-h.results:
				h.mu.Lock()
				ws := h.waiters[r.ID]
				delete(h.waiters, r.ID)
				h.mu.Unlock()
				for _, c := range ws {
					c <- r
				}
			}
		}
	}()
}

// Apply builds every device in cfg. Devices are added one by one; on error
// the ones built so far stay configured.
func (h *HAL) Apply(ctx context.Context, cfg config.HALConfig) error {
	for _, d := range cfg.Devices {
		if err := h.add(ctx, d); err != nil {
			return util.Errf("device %q: %w", d.ID, err)
		}
	}
	return nil
}

func (h *HAL) add(ctx context.Context, d config.Device) error {
	b, ok := registry.Lookup(d.Type)
	if !ok {
		return util.Errf("%w: %q (known: %s)", halerr.ErrUnknownType, d.Type, strings.Join(registry.Types(), ", "))
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, dup := h.devices[d.ID]; dup {
		return util.Errf("%w: duplicate id", halerr.ErrInvalidParams)
	}
	var p struct {
		Pin *int `json:"pin"`
	}
	if err := util.DecodeJSON(d.Params, &p); err == nil && p.Pin != nil {
		if owner, taken := h.pinOwner[*p.Pin]; taken {
			return util.Errf("%w: pin %d held by %q", halerr.ErrPinInUse, *p.Pin, owner)
		}
	}
	out, err := b.Build(registry.BuildInput{
		Ctx:        ctx,
		Pins:       h.pins,
		DeviceID:   d.ID,
		Type:       d.Type,
		ParamsJSON: d.Params,
	})
	if err != nil {
		return err
	}
	h.devices[d.ID] = &device{typ: d.Type, adaptor: &lockedAdaptor{Adaptor: out.Adaptor}}
	if out.Pin >= 0 {
		h.pinOwner[out.Pin] = d.ID
	}
	return nil
}

// Devices lists configured device IDs in sorted order.
func (h *HAL) Devices() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.devices))
	for id := range h.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Capabilities returns the capability documents of one device.
func (h *HAL) Capabilities(id string) ([]CapInfo, error) {
	d, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	return d.adaptor.Capabilities(), nil
}

// Read requests a measurement and waits for its result. Transient decode
// failures are retried by the worker before an error is returned.
func (h *HAL) Read(ctx context.Context, id string) (Sample, error) {
	d, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	c := make(chan halcore.Result, 1)
	h.mu.Lock()
	h.waiters[id] = append(h.waiters[id], c)
	h.mu.Unlock()

	if !h.w.Submit(halcore.MeasureReq{ID: id, Adaptor: d.adaptor, Prio: true}) {
		h.dropWaiter(id, c)
		return nil, halerr.ErrBusy
	}
	select {
	case r := <-c:
		return r.Sample, r.Err
	case <-ctx.Done():
		h.dropWaiter(id, c)
		return nil, ctx.Err()
	}
}

// Control passes a device-specific method through to the adaptor.
func (h *HAL) Control(id, kind, method string, payload any) (any, error) {
	d, err := h.lookup(id)
	if err != nil {
		return nil, err
	}
	return d.adaptor.Control(kind, method, payload)
}

func (h *HAL) lookup(id string) (*device, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.devices[id]
	if !ok {
		return nil, util.Errf("%w: %q", halerr.ErrNoAdaptor, id)
	}
	return d, nil
}

func (h *HAL) dropWaiter(id string, c chan halcore.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ws := h.waiters[id]
	for i, w := range ws {
		if w == c {
			h.waiters[id] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
	if len(h.waiters[id]) == 0 {
		delete(h.waiters, id)
	}
}

// lockedAdaptor serialises all calls into one device.
type lockedAdaptor struct {
	mu sync.Mutex
	halcore.Adaptor
}

func (l *lockedAdaptor) Trigger(ctx context.Context) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Adaptor.Trigger(ctx)
}

func (l *lockedAdaptor) Collect(ctx context.Context) (halcore.Sample, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Adaptor.Collect(ctx)
}

func (l *lockedAdaptor) Control(kind, method string, payload any) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Adaptor.Control(kind, method, payload)
}
