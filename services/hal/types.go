// services/hal/types.go
package hal

import "dhtcode-go/services/hal/internal/halcore"

// Public aliases so callers outside services/hal can name HAL values.
type (
	Reading      = halcore.Reading
	Sample       = halcore.Sample
	CapInfo      = halcore.CapInfo
	WorkerConfig = halcore.WorkerConfig
	PinFactory   = halcore.PinFactory
	GPIOPin      = halcore.GPIOPin
	Pull         = halcore.Pull
)

const (
	PullNone = halcore.PullNone
	PullUp   = halcore.PullUp
	PullDown = halcore.PullDown
)
