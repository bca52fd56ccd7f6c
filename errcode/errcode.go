package errcode

import "errors"

// Code is a stable, caller-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	HALNotReady    Code = "hal_not_ready"

	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"
	Timeout    Code = "timeout"

	// Sensor decode outcomes.
	InsufficientData Code = "insufficient_data"
	ChecksumMismatch Code = "checksum_mismatch"
	NoReading        Code = "no_reading"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Unwrap returns the cause, or the code itself so errors.Is(err, code) holds.
func (e *E) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.C
}

func (e *E) Code() Code { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// Retryable reports whether the failure is transient and the operation may
// be attempted again once the sensor's rate-limit window has passed.
func Retryable(err error) bool {
	switch Of(err) {
	case InsufficientData, ChecksumMismatch, Timeout, PinInUse, Busy:
		return true
	}
	return false
}
