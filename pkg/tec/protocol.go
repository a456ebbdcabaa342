package tec

import "io"

// Order selects whether a cycle reports before or after capturing.
type Order uint8

const (
	// ReportThenCapture sends the batch captured during the previous cycle,
	// then captures a new one. The first report is the zeroed buffer. This is
	// the order existing hosts expect.
	ReportThenCapture Order = iota
	// CaptureThenReport captures first and reports the fresh batch. Only for
	// hosts that have been updated to expect it.
	CaptureThenReport
)

// Serial is the half-duplex byte link to the host. Both directions block.
type Serial interface {
	io.ByteReader
	io.ByteWriter
}

// Options configures a Protocol.
type Options struct {
	Serial    Serial
	Converter Converter
	Buffer    *Buffer
	Actuator  *Actuator
	// BatchSize is N, the number of samples per report. Zero selects the
	// buffer capacity.
	BatchSize int
	Order     Order
}

// Protocol is the top-level driver loop: trigger, report, capture, command,
// dispatch.
type Protocol struct {
	serial Serial
	conv   Converter
	buf    *Buffer
	act    *Actuator
	n      int
	order  Order

	cycles uint32
}

// NewProtocol validates opts. A batch size larger than the buffer returns an
// error wrapping ErrOutOfBounds so it is caught before the loop starts.
func NewProtocol(opts Options) (*Protocol, error) {
	n := opts.BatchSize
	if n == 0 {
		n = opts.Buffer.Capacity()
	}
	if n < 0 || n > opts.Buffer.Capacity() {
		return nil, &boundsError{op: "batch", n: n, capacity: opts.Buffer.Capacity()}
	}
	return &Protocol{
		serial: opts.Serial,
		conv:   opts.Converter,
		buf:    opts.Buffer,
		act:    opts.Actuator,
		n:      n,
		order:  opts.Order,
	}, nil
}

// BatchSize returns N.
func (p *Protocol) BatchSize() int { return p.n }

// Cycles returns the number of completed cycles.
func (p *Protocol) Cycles() uint32 { return p.cycles }

// Cycle runs one exchange and returns the dispatched command. Every read
// blocks without a timeout; the only errors come from the serial link
// itself.
func (p *Protocol) Cycle() (Command, error) {
	// Any byte starts the cycle.
	if _, err := p.serial.ReadByte(); err != nil {
		return Command{}, err
	}

	if p.order == CaptureThenReport {
		p.buf.Capture(p.conv, p.n)
		if err := p.buf.Transmit(p.serial, p.n); err != nil {
			return Command{}, err
		}
	} else {
		if err := p.buf.Transmit(p.serial, p.n); err != nil {
			return Command{}, err
		}
		p.buf.Capture(p.conv, p.n)
	}

	cmd, err := ReadCommand(p.serial)
	if err != nil {
		return Command{}, err
	}
	if _, err := p.act.Apply(cmd); err != nil {
		return cmd, err
	}
	p.cycles++
	return cmd, nil
}

// Run repeats Cycle until the serial link fails. On the device the link
// never fails, so Run does not return.
func (p *Protocol) Run() error {
	for {
		if _, err := p.Cycle(); err != nil {
			return err
		}
	}
}
