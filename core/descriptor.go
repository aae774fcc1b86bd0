package core

import "fmt"

// Config holds the five logical values that select a pin's configuration
type Config struct {
	Pin       PinNumber
	Direction Direction
	PullUp    PullUp
	PullDown  PullDown
	Interrupt Interrupt
}

// DriverMode is the driver's mode bit set.
// The layout follows the ESP-IDF gpio_mode_t bits.
type DriverMode uint32

const (
	ModeDisable   DriverMode = 0
	ModeDefInput  DriverMode = 1 << 0
	ModeDefOutput DriverMode = 1 << 1
	ModeDefOD     DriverMode = 1 << 2

	ModeInput           = ModeDefInput
	ModeOutput          = ModeDefOutput
	ModeOutputOpenDrain = ModeDefOutput | ModeDefOD
)

// IntrType is the driver's interrupt type code
type IntrType uint32

const (
	IntrDisable IntrType = iota
	IntrPosEdge
	IntrNegEdge
	IntrAnyEdge
	IntrLowLevel
	IntrHighLevel
)

// Trigger returns the logical interrupt trigger for the type code
func (t IntrType) Trigger() Interrupt {
	return Interrupt(t)
}

// DriverConfig is the record passed to GPIODriver.Configure.
// It selects pins by bitmask, so a descriptor always sets exactly one bit.
type DriverConfig struct {
	PinBitMask uint64
	Mode       DriverMode
	PullUpEn   bool
	PullDownEn bool
	IntrType   IntrType
}

// Pins returns the pin numbers selected by the bitmask
func (c DriverConfig) Pins() []PinNumber {
	var pins []PinNumber
	for i := PinNumber(0); i < 64; i++ {
		if c.PinBitMask&i.Mask() != 0 {
			pins = append(pins, i)
		}
	}
	return pins
}

// Descriptor is the immutable, validated configuration of one pin.
// The zero value is not valid; use NewDescriptor or MustDescriptor.
type Descriptor struct {
	cfg    Config
	driver DriverConfig
}

// NewDescriptor validates cfg and translates it to the driver's vocabulary.
// It touches no hardware.
func NewDescriptor(cfg Config) (Descriptor, error) {
	if !cfg.Pin.Valid() {
		return Descriptor{}, fmt.Errorf("%w: %d >= %d", ErrPinOutOfRange, cfg.Pin, PinCount)
	}

	var mode DriverMode
	switch cfg.Direction {
	case Input:
		mode = ModeInput
	case Output:
		mode = ModeOutput
	case OutputOpenDrain:
		mode = ModeOutputOpenDrain
	default:
		return Descriptor{}, fmt.Errorf("%w: direction %v", ErrInvalidConfig, cfg.Direction)
	}
	if cfg.PullUp > PullUpEnable {
		return Descriptor{}, fmt.Errorf("%w: pull-up %d", ErrInvalidConfig, cfg.PullUp)
	}
	if cfg.PullDown > PullDownEnable {
		return Descriptor{}, fmt.Errorf("%w: pull-down %d", ErrInvalidConfig, cfg.PullDown)
	}
	if cfg.Interrupt > InterruptHighLevel {
		return Descriptor{}, fmt.Errorf("%w: interrupt %v", ErrInvalidConfig, cfg.Interrupt)
	}

	return Descriptor{
		cfg: cfg,
		driver: DriverConfig{
			PinBitMask: cfg.Pin.Mask(),
			Mode:       mode,
			PullUpEn:   cfg.PullUp == PullUpEnable,
			PullDownEn: cfg.PullDown == PullDownEnable,
			// Interrupt values are declared in the same order as IntrType
			IntrType: IntrType(cfg.Interrupt),
		},
	}, nil
}

// MustDescriptor is like NewDescriptor but panics on an invalid configuration.
// It is meant for package-level pin declarations whose values are constants.
func MustDescriptor(cfg Config) Descriptor {
	d, err := NewDescriptor(cfg)
	if err != nil {
		panic("core: " + err.Error())
	}
	return d
}

func (d Descriptor) Pin() PinNumber { return d.cfg.Pin }
func (d Descriptor) Direction() Direction { return d.cfg.Direction }
func (d Descriptor) PullUp() PullUp { return d.cfg.PullUp }
func (d Descriptor) PullDown() PullDown { return d.cfg.PullDown }
func (d Descriptor) Interrupt() Interrupt { return d.cfg.Interrupt }
func (d Descriptor) Config() Config { return d.cfg }
func (d Descriptor) DriverConfig() DriverConfig { return d.driver }

func (d Descriptor) String() string {
	return fmt.Sprintf("gpio%d %v pull_up=%t pull_down=%t intr=%v",
		d.cfg.Pin, d.cfg.Direction, d.driver.PullUpEn, d.driver.PullDownEn, d.cfg.Interrupt)
}
