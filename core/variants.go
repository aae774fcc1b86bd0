package core

// Constructors for the common pin configurations.

func NewInput(pin PinNumber, pu PullUp, pd PullDown, intr Interrupt, opts ...Option) (*Pin, error) {
	return NewPin(Config{Pin: pin, Direction: Input, PullUp: pu, PullDown: pd, Interrupt: intr}, opts...)
}

func NewPullUpInput(pin PinNumber, intr Interrupt, opts ...Option) (*Pin, error) {
	return NewInput(pin, PullUpEnable, PullDownDisable, intr, opts...)
}

func NewPullDownInput(pin PinNumber, intr Interrupt, opts ...Option) (*Pin, error) {
	return NewInput(pin, PullUpDisable, PullDownEnable, intr, opts...)
}

func NewOutput(pin PinNumber, pu PullUp, pd PullDown, intr Interrupt, opts ...Option) (*Pin, error) {
	return NewPin(Config{Pin: pin, Direction: Output, PullUp: pu, PullDown: pd, Interrupt: intr}, opts...)
}

// NewOpenDrainOutput builds an output that only pulls low or releases the line
func NewOpenDrainOutput(pin PinNumber, pu PullUp, pd PullDown, intr Interrupt, opts ...Option) (*Pin, error) {
	return NewPin(Config{Pin: pin, Direction: OutputOpenDrain, PullUp: pu, PullDown: pd, Interrupt: intr}, opts...)
}

func NewPullUpOutput(pin PinNumber, intr Interrupt, opts ...Option) (*Pin, error) {
	return NewOutput(pin, PullUpEnable, PullDownDisable, intr, opts...)
}

func NewPullDownOutput(pin PinNumber, intr Interrupt, opts ...Option) (*Pin, error) {
	return NewOutput(pin, PullUpDisable, PullDownEnable, intr, opts...)
}
