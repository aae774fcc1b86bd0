package core

// Controller is the capability set shared by every configured pin.
// Callers can hold "some configured pin" without knowing its configuration;
// operations the configuration does not allow return ErrNotSupported.
//
// The results of Init, Level and RegisterISR must not be discarded.
type Controller interface {
	Init() error
	Level() Level
	SetLevel(level Level) error
	SetHigh() error
	SetLow() error
	Toggle() error
	RegisterISR(handler ISR, arg any) error
}

// Pin controls a single GPIO pin with a fixed configuration.
//
// Init must be called once before the other operations; calls made before
// Init have hardware-dependent results. A Pin caches the last level it wrote
// and Toggle inverts that cache rather than re-reading the line. The cache is
// not synchronized: if a pin is driven from several goroutines, or from both
// normal code and an interrupt handler, wrap it with Locked.
//
// Only one Pin should exist per physical pin. Use WithRegistry to have
// construction enforce that.
type Pin struct {
	desc     Descriptor
	driver   GPIODriver
	registry *Registry
	level    Level // last written level
}

var _ Controller = (*Pin)(nil)

// Option configures a Pin at construction
type Option func(*options)

type options struct {
	driver   GPIODriver
	level    Level
	registry *Registry
}

// WithDriver selects the driver used by the pin instead of the global one
// registered with SetGPIODriver.
func WithDriver(d GPIODriver) Option {
	return func(o *options) { o.driver = d }
}

// WithInitialLevel sets the level an output pin drives on Init (default Low)
func WithInitialLevel(l Level) Option {
	return func(o *options) { o.level = l }
}

// WithRegistry makes construction claim the pin in r
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// NewPin builds a pin controller from cfg. No hardware is touched until Init.
func NewPin(cfg Config, opts ...Option) (*Pin, error) {
	desc, err := NewDescriptor(cfg)
	if err != nil {
		return nil, err
	}
	return NewPinFromDescriptor(desc, opts...)
}

// NewPinFromDescriptor builds a pin controller owning desc
func NewPinFromDescriptor(desc Descriptor, opts ...Option) (*Pin, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.driver == nil {
		o.driver = MustGPIO()
	}
	if o.registry != nil {
		if err := o.registry.Claim(desc.Pin()); err != nil {
			return nil, err
		}
	}
	return &Pin{
		desc:     desc,
		driver:   o.driver,
		registry: o.registry,
		level:    o.level,
	}, nil
}

// Descriptor returns the pin's immutable configuration
func (p *Pin) Descriptor() Descriptor {
	return p.desc
}

// Init applies the descriptor to the hardware. Output pins are then driven to
// the cached level, so repeated calls leave the hardware in the same state.
func (p *Pin) Init() error {
	if err := p.driver.Configure(p.desc.DriverConfig()); err != nil {
		return err
	}
	if p.desc.Direction().IsOutput() {
		return p.driver.SetLevel(p.desc.Pin(), p.level)
	}
	return nil
}

// Level reads the current level of the line, whatever the direction
func (p *Pin) Level() Level {
	return p.driver.GetLevel(p.desc.Pin())
}

// SetLevel drives the pin. Input pins return ErrNotSupported.
func (p *Pin) SetLevel(level Level) error {
	if p.desc.Direction() == Input {
		return ErrNotSupported
	}
	p.level = level
	return p.driver.SetLevel(p.desc.Pin(), level)
}

func (p *Pin) SetHigh() error {
	return p.SetLevel(High)
}

func (p *Pin) SetLow() error {
	return p.SetLevel(Low)
}

// Toggle writes the inverse of the last written level
func (p *Pin) Toggle() error {
	return p.SetLevel(p.level.Invert())
}

// LastLevel returns the cached last written level
func (p *Pin) LastLevel() Level {
	return p.level
}

// RegisterISR forwards handler and arg to the driver.
// Pins configured without an interrupt trigger return ErrNotSupported.
func (p *Pin) RegisterISR(handler ISR, arg any) error {
	if p.desc.Interrupt() == InterruptNone {
		return ErrNotSupported
	}
	return p.driver.AddISRHandler(p.desc.Pin(), handler, arg)
}

// Release gives back the registry claim taken at construction, if any.
// The hardware keeps its current configuration.
func (p *Pin) Release() {
	if p.registry != nil {
		p.registry.Release(p.desc.Pin())
		p.registry = nil
	}
}
