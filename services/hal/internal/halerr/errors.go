// services/hal/internal/halerr/errors.go
package halerr

import "errors"

var (
	// Service/control plane
	ErrBusy      = errors.New("busy")
	ErrNoAdaptor = errors.New("no_adaptor")

	// Build/config
	ErrUnknownType   = errors.New("unknown_device_type")
	ErrInvalidParams = errors.New("invalid_params")
	ErrNoPins        = errors.New("no_pin_factory")
	ErrUnknownPin    = errors.New("unknown_pin")
	ErrPinInUse      = errors.New("pin_in_use")
)
