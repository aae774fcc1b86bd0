package protocol

// OutputBuffer is where encoders write protocol data
type OutputBuffer interface {
	// Output appends data
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// DataSince returns data from pos to the current position
	DataSince(pos int) []byte
}

// ScratchOutput is an OutputBuffer backed by a fixed array. Output beyond
// MessageMax is dropped.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput creates an empty ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written so far
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a fixed capacity byte ring used to reassemble frames from
// serial reads
type FifoBuffer struct {
	buf   []byte
	head  int
	count int
}

// NewFifoBuffer creates a FifoBuffer holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the amount written
func (f *FifoBuffer) Write(data []byte) int {
	n := min(len(data), f.Free())
	tail := (f.head + f.count) % len(f.buf)
	c := copy(f.buf[tail:], data[:n])
	copy(f.buf, data[c:n])
	f.count += n
	return n
}

// Read moves up to len(data) bytes out of the buffer
func (f *FifoBuffer) Read(data []byte) int {
	n := min(len(data), f.count)
	c := copy(data[:n], f.buf[f.head:])
	copy(data[c:n], f.buf)
	f.Pop(n)
	return n
}

// Available returns the number of buffered bytes
func (f *FifoBuffer) Available() int {
	return f.count
}

// Free returns the number of bytes Write can still accept
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.count
}

// Data returns the buffered bytes as one slice. When the content wraps the
// slice is a copy.
func (f *FifoBuffer) Data() []byte {
	if f.head+f.count <= len(f.buf) {
		return f.buf[f.head : f.head+f.count]
	}
	out := make([]byte, f.count)
	c := copy(out, f.buf[f.head:])
	copy(out[c:], f.buf)
	return out
}

// Pop discards n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	n = min(n, f.count)
	f.head = (f.head + n) % len(f.buf)
	f.count -= n
}

// IsEmpty reports whether nothing is buffered
func (f *FifoBuffer) IsEmpty() bool {
	return f.count == 0
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.head, f.count = 0, 0
}
