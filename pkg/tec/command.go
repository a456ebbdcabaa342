package tec

import "io"

// Mode is the requested actuation direction.
type Mode uint8

const (
	Heat Mode = iota
	Cool
)

// Wire bytes for the mode selector. The device only looks for ModeHeatByte;
// every other byte means Cool.
const (
	ModeHeatByte byte = 'h'
	ModeCoolByte byte = 'c'

	// TriggerByte is what the host sends to start a cycle. The device ignores
	// the value.
	TriggerByte byte = 0x01
)

func (m Mode) String() string {
	if m == Heat {
		return "heat"
	}
	return "cool"
}

// Command is one host instruction: direction plus an 8-bit duty value.
type Command struct {
	Mode Mode
	Duty uint8
}

// DecodeMode maps a received mode byte to a Mode. Anything that is not 'h'
// selects cooling.
func DecodeMode(b byte) Mode {
	if b == ModeHeatByte {
		return Heat
	}
	return Cool
}

// MarshalBinary encodes the command as it goes on the wire.
func (c Command) MarshalBinary() ([]byte, error) {
	mode := ModeCoolByte
	if c.Mode == Heat {
		mode = ModeHeatByte
	}
	return []byte{mode, c.Duty}, nil
}

// UnmarshalBinary decodes a two byte command frame.
func (c *Command) UnmarshalBinary(data []byte) error {
	if len(data) != 2 {
		return ErrShortCommand
	}
	c.Mode = DecodeMode(data[0])
	c.Duty = data[1]
	return nil
}

// ReadCommand blocks until the mode byte and the duty byte have arrived.
func ReadCommand(r io.ByteReader) (Command, error) {
	mode, err := r.ReadByte()
	if err != nil {
		return Command{}, err
	}
	duty, err := r.ReadByte()
	if err != nil {
		return Command{}, err
	}
	return Command{Mode: DecodeMode(mode), Duty: duty}, nil
}
