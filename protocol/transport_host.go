package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gopio/logging"
)

var ErrTransportClosed = errors.New("transport closed")

// DefaultCallTimeout bounds a Call whose context has no deadline
const DefaultCallTimeout = 2 * time.Second

// Reply is a decoded response message
type Reply struct {
	ID   MessageID
	Args []uint32
}

// EventHandler receives messages the device sends without being asked. It
// runs on the read goroutine and must not wait on Call.
type EventHandler func(r Reply)

// HostTransport is the host side of the link. Calls are serialized: each one
// sends a request frame and waits for the frame echoing its sequence number.
type HostTransport struct {
	port     io.ReadWriteCloser
	registry *CommandRegistry
	timeout  time.Duration

	callMu  sync.Mutex
	nextSeq uint8

	mu      sync.Mutex
	waitSeq uint8
	waitCh  chan Reply
	events  EventHandler
	readErr error

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// HostOption configures a HostTransport
type HostOption func(*HostTransport)

// WithCallTimeout replaces DefaultCallTimeout
func WithCallTimeout(d time.Duration) HostOption {
	return func(t *HostTransport) { t.timeout = d }
}

// WithEventHandler installs the handler for unsolicited messages
func WithEventHandler(h EventHandler) HostOption {
	return func(t *HostTransport) { t.events = h }
}

// NewHostTransport starts reading from port in the background
func NewHostTransport(port io.ReadWriteCloser, opts ...HostOption) *HostTransport {
	t := &HostTransport{
		port:     port,
		registry: NewCommandRegistry(),
		timeout:  DefaultCallTimeout,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	go t.readLoop()
	return t
}

// SetEventHandler replaces the handler for unsolicited messages
func (t *HostTransport) SetEventHandler(h EventHandler) {
	t.mu.Lock()
	t.events = h
	t.mu.Unlock()
}

// Call sends one request and returns the first message of the reply frame
func (t *HostTransport) Call(ctx context.Context, id MessageID, args ...uint32) (Reply, error) {
	if _, ok := ctx.Deadline(); !ok && t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.callMu.Lock()
	defer t.callMu.Unlock()

	seq := MessageDest | t.nextSeq
	t.nextSeq = (t.nextSeq + 1) & MessageSeqMask

	frame, err := EncodeMessage(seq, id, args...)
	if err != nil {
		return Reply{}, err
	}

	ch := make(chan Reply, 1)
	t.mu.Lock()
	if t.readErr != nil {
		err := t.readErr
		t.mu.Unlock()
		return Reply{}, err
	}
	t.waitSeq, t.waitCh = seq, ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.waitCh = nil
		t.mu.Unlock()
	}()

	if _, err := t.port.Write(frame); err != nil {
		return Reply{}, fmt.Errorf("write %v: %w", id, err)
	}

	select {
	case r, ok := <-ch:
		if !ok {
			return Reply{}, t.err()
		}
		return r, nil
	case <-ctx.Done():
		return Reply{}, fmt.Errorf("%v: %w", id, ctx.Err())
	case <-t.stopChan:
		return Reply{}, ErrTransportClosed
	}
}

// Close stops the reader and closes the port
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}

func (t *HostTransport) err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.readErr != nil {
		return t.readErr
	}
	return ErrTransportClosed
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	decoder := NewDecoder()
	buf := make([]byte, MessageLengthMax)
	for {
		n, err := t.port.Read(buf)
		for p := buf[:n]; len(p) > 0; {
			w := decoder.Write(p)
			p = p[w:]
			t.drain(decoder)
			if w == 0 && decoder.Free() == 0 {
				decoder.Reset()
			}
		}
		if err != nil {
			t.fail(err)
			return
		}
	}
}

func (t *HostTransport) fail(err error) {
	select {
	case <-t.stopChan:
		err = ErrTransportClosed
	default:
		logging.Warn(logging.ComponentTransport, "read failed", "err", err)
		err = fmt.Errorf("%w: %w", ErrTransportClosed, err)
	}

	t.mu.Lock()
	t.readErr = err
	if t.waitCh != nil {
		close(t.waitCh)
		t.waitCh = nil
	}
	t.mu.Unlock()
}

func (t *HostTransport) drain(decoder *Decoder) {
	for {
		f, ok := decoder.Next()
		if !ok {
			return
		}
		t.handleFrame(f)
	}
}

func (t *HostTransport) handleFrame(f Frame) {
	data := f.Payload
	for len(data) > 0 {
		id, args, err := t.registry.DecodeArgs(&data)
		if err != nil {
			logging.Warn(logging.ComponentTransport, "bad response", "seq", f.Seq, "err", err)
			return
		}
		r := Reply{ID: id, Args: args}

		if id == RspEvent || f.Seq == MessageSeqEvent {
			t.mu.Lock()
			h := t.events
			t.mu.Unlock()
			if h != nil {
				h(r)
			}
			continue
		}

		t.mu.Lock()
		if t.waitCh != nil && f.Seq == t.waitSeq {
			t.waitCh <- r
			t.waitCh = nil
		} else {
			logging.Debug(logging.ComponentTransport, "stale response", "seq", f.Seq, "msg", id)
		}
		t.mu.Unlock()
	}
}
