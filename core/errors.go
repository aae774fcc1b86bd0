package core

import "errors"

var (
	// ErrNotSupported is returned when the configured direction or interrupt
	// trigger does not allow the operation. No driver call is made.
	ErrNotSupported = errors.New("operation not supported by pin configuration")

	// ErrPinOutOfRange is returned when a pin number is not below PinCount
	ErrPinOutOfRange = errors.New("pin number out of range")

	// ErrInvalidConfig is returned for enumeration values outside their range
	ErrInvalidConfig = errors.New("invalid pin configuration")

	// ErrInvalidArg is the driver status for an argument the hardware cannot
	// accept. Drivers return it, possibly wrapped with details.
	ErrInvalidArg = errors.New("invalid argument")

	// ErrPinClaimed is returned when a registry already holds a claim on the pin
	ErrPinClaimed = errors.New("pin already claimed")
)
