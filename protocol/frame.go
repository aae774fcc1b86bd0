package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrFrameTooLarge = errors.New("frame payload too large")
	ErrTrailingData  = errors.New("trailing data after message")
)

// Frame is one validated frame with the header and trailer removed
type Frame struct {
	Seq     uint8
	Payload []byte
}

// IsRequest reports whether the frame was addressed to the device
func (f Frame) IsRequest() bool {
	return f.Seq&^MessageSeqMask == MessageDest
}

// EncodeFrame writes a complete frame around payload to output
func EncodeFrame(output OutputBuffer, seq uint8, payload []byte) error {
	if len(payload) > MessagePayloadMax {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	start := output.CurPosition()
	output.Output([]byte{uint8(len(payload) + MessageLengthMin), seq})
	output.Output(payload)

	crc := CRC16(output.DataSince(start))
	output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
	return nil
}

// EncodeMessage returns a frame carrying a single message
func EncodeMessage(seq uint8, id MessageID, args ...uint32) ([]byte, error) {
	payload := NewScratchOutput()
	EncodeVLQUint(payload, uint32(id))
	for _, a := range args {
		EncodeVLQUint(payload, a)
	}

	frame := NewScratchOutput()
	if err := EncodeFrame(frame, seq, payload.Result()); err != nil {
		return nil, err
	}
	return append([]byte(nil), frame.Result()...), nil
}

// Decoder splits a byte stream into frames.
//
// A frame with a bad length, CRC or sync byte drops the decoder out of sync;
// it then discards input up to and including the next sync byte.
type Decoder struct {
	buf    *FifoBuffer
	synced bool
	errors int
}

// NewDecoder returns a decoder able to buffer a few maximum sized frames
func NewDecoder() *Decoder {
	return &Decoder{
		buf:    NewFifoBuffer(4 * MessageLengthMax),
		synced: true,
	}
}

// Write queues stream data and returns how many bytes were accepted
func (d *Decoder) Write(p []byte) int {
	return d.buf.Write(p)
}

// Free returns the number of bytes Write can accept
func (d *Decoder) Free() int {
	return d.buf.Free()
}

// Errors returns the number of corrupt frames seen
func (d *Decoder) Errors() int {
	return d.errors
}

// Next returns the next complete frame, or false if more input is needed
func (d *Decoder) Next() (Frame, bool) {
	for {
		data := d.buf.Data()
		if len(data) == 0 {
			return Frame{}, false
		}

		if !d.synced {
			i := indexSync(data)
			if i < 0 {
				d.buf.Pop(len(data))
				return Frame{}, false
			}
			d.buf.Pop(i + 1)
			d.synced = true
			continue
		}

		if data[0] == MessageValueSync {
			d.buf.Pop(1)
			continue
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}
		if len(data) < msgLen {
			return Frame{}, false
		}
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		got := uint16(data[msgLen-MessageTrailerCRC])<<8 | uint16(data[msgLen-MessageTrailerCRC+1])
		if CRC16(data[:msgLen-MessageTrailerCRC]) != got {
			d.desync()
			continue
		}

		f := Frame{
			Seq:     data[MessagePositionSeq],
			Payload: append([]byte(nil), data[MessageHeaderSize:msgLen-MessageTrailerCRC]...),
		}
		d.buf.Pop(msgLen)
		return f, true
	}
}

// Reset drops buffered input
func (d *Decoder) Reset() {
	d.buf.Reset()
	d.synced = true
}

func (d *Decoder) desync() {
	d.errors++
	d.synced = false
	// drop the length byte so the search starts past it
	d.buf.Pop(1)
}

func indexSync(data []byte) int {
	for i, b := range data {
		if b == MessageValueSync {
			return i
		}
	}
	return -1
}
