package device

import (
	"context"
	"time"

	"github.com/itohio/gotec/pkg/tec"
)

// Device defines the interface for controller devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	// Exchange runs one protocol cycle: trigger, receive the report, send cmd.
	Exchange(ctx context.Context, cmd tec.Command) (Batch, error)
	IsConnected() bool
}

// Batch is what one cycle produced.
type Batch struct {
	Seq       int
	Timestamp time.Time // When the report finished arriving
	// Samples is the report. With the default device ordering it holds the
	// batch captured during the previous cycle; the first one is all zero.
	Samples []uint8
	// Command is what was sent after the report.
	Command tec.Command
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
