package tec

import "errors"

var (
	// ErrOutOfBounds is the fail-fast condition for a capture or transmit
	// length that does not fit the sample buffer.
	ErrOutOfBounds = errors.New("tec: sample count out of bounds")
	// ErrShortCommand is returned when a command frame is not exactly two bytes.
	ErrShortCommand = errors.New("tec: command must be exactly 2 bytes")
)

// boundsError carries the offending count and capacity.
type boundsError struct {
	op       string
	n        int
	capacity int
}

func (e *boundsError) Error() string {
	return "tec: " + e.op + " " + itoa(e.n) + " samples out of range [0, " + itoa(e.capacity) + "]"
}

func (e *boundsError) Unwrap() error { return ErrOutOfBounds }

// itoa avoids pulling fmt/strconv into the firmware image.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}
