// services/hal/internal/registry/registry.go
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dhtcode-go/services/hal/internal/halcore"
)

// BuildInput is passed to a device builder.
type BuildInput struct {
	Ctx        context.Context
	Pins       halcore.PinFactory
	DeviceID   string
	Type       string
	ParamsJSON interface{}
}

// BuildOutput describes a constructed device.
type BuildOutput struct {
	Adaptor halcore.Adaptor
	Pin     int // GPIO number owned exclusively by the device
}

// Builder creates an adaptor from config and factories.
type Builder interface {
	Build(in BuildInput) (BuildOutput, error)
}

var (
	mu       sync.RWMutex
	builders = map[string]Builder{}
)

func RegisterBuilder(deviceType string, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := builders[deviceType]; exists {
		panic(fmt.Sprintf("device builder already registered for type %q", deviceType))
	}
	builders[deviceType] = b
}

func Lookup(deviceType string) (Builder, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := builders[deviceType]
	return b, ok
}

// Types lists registered device types in sorted order.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(builders))
	for k := range builders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
