package tec

import "io"

const (
	// DefaultBatchSize is the number of samples in one report.
	DefaultBatchSize = 400

	// converterMask keeps the 10 significant bits of a raw conversion.
	converterMask = 0x3FF
	// sampleShift scales a 10-bit conversion down to an 8-bit sample.
	sampleShift = 2
)

// Buffer holds one acquisition batch. Capacity is fixed at construction.
type Buffer struct {
	v []uint8
}

// NewBuffer allocates a buffer of the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{v: make([]uint8, capacity)}
}

// Capacity returns the fixed number of sample slots.
func (b *Buffer) Capacity() int { return len(b.v) }

// ScaleSample converts a raw 10-bit conversion to an 8-bit sample.
func ScaleSample(raw uint16) uint8 {
	return uint8((raw & converterMask) >> sampleShift)
}

// Capture overwrites slots 0..n-1 with fresh conversions, in index order.
// It panics with an error wrapping ErrOutOfBounds if n does not fit; the
// buffer is left untouched in that case.
func (b *Buffer) Capture(conv Converter, n int) {
	b.check("capture", n)
	for i := 0; i < n; i++ {
		b.v[i] = ScaleSample(conv.Read())
	}
}

// Transmit writes slots 0..n-1 to w, one byte per sample, no framing.
// It panics like Capture when n does not fit. Write errors are returned
// unchanged; on the device the writer blocks instead of failing.
func (b *Buffer) Transmit(w io.ByteWriter, n int) error {
	b.check("transmit", n)
	for i := 0; i < n; i++ {
		if err := w.WriteByte(b.v[i]); err != nil {
			return err
		}
	}
	return nil
}

// Samples returns a copy of slots 0..n-1.
func (b *Buffer) Samples(n int) []uint8 {
	b.check("read", n)
	out := make([]uint8, n)
	copy(out, b.v[:n])
	return out
}

func (b *Buffer) check(op string, n int) {
	if n < 0 || n > len(b.v) {
		panic(&boundsError{op: op, n: n, capacity: len(b.v)})
	}
}
