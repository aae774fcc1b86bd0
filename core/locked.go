package core

// Locked wraps c so that every operation runs inside a critical section.
// Use it when a pin is driven from more than one goroutine or from both normal
// code and an interrupt handler; it keeps Toggle's cached level consistent.
// A handler registered through the wrapper may call back into it: if the
// interrupt fires while the section is held, the handler runs after release.
func Locked(c Controller) Controller {
	return &lockedController{c: c}
}

type lockedController struct {
	cs criticalSection
	c  Controller
}

func (l *lockedController) Init() error {
	s := l.cs.enter()
	defer l.cs.exit(s)
	return l.c.Init()
}

func (l *lockedController) Level() Level {
	s := l.cs.enter()
	defer l.cs.exit(s)
	return l.c.Level()
}

func (l *lockedController) SetLevel(level Level) error {
	s := l.cs.enter()
	defer l.cs.exit(s)
	return l.c.SetLevel(level)
}

func (l *lockedController) SetHigh() error {
	return l.SetLevel(High)
}

func (l *lockedController) SetLow() error {
	return l.SetLevel(Low)
}

func (l *lockedController) Toggle() error {
	s := l.cs.enter()
	defer l.cs.exit(s)
	return l.c.Toggle()
}

func (l *lockedController) RegisterISR(handler ISR, arg any) error {
	s := l.cs.enter()
	defer l.cs.exit(s)
	if handler == nil {
		return l.c.RegisterISR(nil, arg)
	}
	return l.c.RegisterISR(func(arg any) { l.cs.deliver(handler, arg) }, arg)
}
