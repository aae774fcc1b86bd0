package protocol

import (
	"fmt"
	"io"
	"sync"

	"gopio/logging"
)

// Transport is the device side of the link. It turns received bytes into
// dispatched commands and writes framed replies and events.
type Transport struct {
	registry *CommandRegistry
	decoder  *Decoder

	writeMu sync.Mutex
	w       io.Writer

	// seq of the request being dispatched; only touched from Receive
	seq uint8
}

// NewTransport returns a transport writing to w and dispatching to registry
func NewTransport(w io.Writer, registry *CommandRegistry) *Transport {
	return &Transport{
		registry: registry,
		decoder:  NewDecoder(),
		w:        w,
		seq:      MessageDest,
	}
}

// Registry returns the command registry frames are dispatched to
func (t *Transport) Registry() *CommandRegistry {
	return t.registry
}

// Receive feeds stream data and dispatches every complete request frame.
// It must not be called concurrently with itself.
func (t *Transport) Receive(p []byte) {
	for len(p) > 0 {
		n := t.decoder.Write(p)
		p = p[n:]
		t.drain()
		if n == 0 && t.decoder.Free() == 0 {
			// buffer full of a frame that can never complete
			t.decoder.Reset()
		}
	}
}

func (t *Transport) drain() {
	for {
		f, ok := t.decoder.Next()
		if !ok {
			return
		}
		if !f.IsRequest() {
			logging.Debug(logging.ComponentTransport, "ignoring frame", "seq", f.Seq)
			continue
		}
		t.seq = f.Seq
		t.dispatch(f.Payload)
	}
}

func (t *Transport) dispatch(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(logging.ComponentTransport, "command handler panic", "panic", fmt.Sprint(r))
		}
	}()

	data := payload
	for len(data) > 0 {
		if err := t.registry.Dispatch(&data); err != nil {
			logging.Warn(logging.ComponentTransport, "dispatch failed", "seq", t.seq, "err", err)
			return
		}
	}
}

// Reply sends a message tagged with the sequence of the request being
// handled. It is meant to be called from command handlers.
func (t *Transport) Reply(id MessageID, args ...uint32) error {
	return t.Send(t.seq, id, args...)
}

// Send writes one message in its own frame
func (t *Transport) Send(seq uint8, id MessageID, args ...uint32) error {
	frame, err := EncodeMessage(seq, id, args...)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_, err = t.w.Write(frame)
	return err
}

// Errors returns the number of corrupt frames dropped so far
func (t *Transport) Errors() int {
	return t.decoder.Errors()
}
