package capture

import "fmt"

type ErrorKind int

const (
	// PermissionDenied means the platform refused access to the device.
	PermissionDenied ErrorKind = iota
	// NoDevice means no usable capture device exists for the provider.
	NoDevice
	// NoSourceAvailable means every provider in the chain failed.
	NoSourceAvailable
)

func (k ErrorKind) String() string {
	switch k {
	case PermissionDenied:
		return "permission denied"
	case NoDevice:
		return "no device"
	case NoSourceAvailable:
		return "no source available"
	default:
		return "unknown"
	}
}

// Error is a capture acquisition failure. Cause carries the last
// underlying provider error when Kind is NoSourceAvailable.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("capture: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("capture: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }
