package core

// ISR is an interrupt handler. It receives the argument given at registration
// and runs in whatever context the driver delivers interrupts from.
type ISR func(arg any)

// GPIODriver is the hardware interface the pin controllers are built on.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// Configure applies cfg to every pin selected by cfg.PinBitMask
	Configure(cfg DriverConfig) error

	// GetLevel reads the instantaneous level of the pin
	GetLevel(pin PinNumber) Level

	// SetLevel drives the pin to level
	SetLevel(pin PinNumber, level Level) error

	// AddISRHandler installs handler for the pin's configured interrupt.
	// The handler is called with arg each time the trigger fires.
	AddISRHandler(pin PinNumber, handler ISR, arg any) error
}

// Global default driver, used by pins constructed without WithDriver.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
