package protocol

import (
	"errors"
	"fmt"

	"gopio/core"
)

// ErrRemoteFailure is returned for a device side failure that has no more
// specific status code
var ErrRemoteFailure = errors.New("remote driver failure")

// Status is the result code carried by pin_status
type Status uint8

const (
	StatusOK Status = iota
	StatusNotSupported
	StatusInvalidArg
	StatusFailure
)

// StatusOf maps a driver error to its wire status
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, core.ErrNotSupported):
		return StatusNotSupported
	case errors.Is(err, core.ErrInvalidArg),
		errors.Is(err, core.ErrPinOutOfRange),
		errors.Is(err, core.ErrInvalidConfig):
		return StatusInvalidArg
	default:
		return StatusFailure
	}
}

// Err maps a wire status back to the error a local driver would have returned
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusNotSupported:
		return core.ErrNotSupported
	case StatusInvalidArg:
		return core.ErrInvalidArg
	case StatusFailure:
		return ErrRemoteFailure
	default:
		return fmt.Errorf("%w: status %d", ErrRemoteFailure, uint8(s))
	}
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotSupported:
		return "not supported"
	case StatusInvalidArg:
		return "invalid argument"
	case StatusFailure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}
