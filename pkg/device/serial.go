package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/itohio/gotec/pkg/tec"
)

const (
	// DefaultBaudRate matches the firmware UART configuration.
	DefaultBaudRate = 115200
	// DefaultBatchSize matches the firmware batch size.
	DefaultBatchSize = tec.DefaultBatchSize
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial is a connection to the controller MCU.
type Serial struct {
	port        string
	baudRate    int
	batchSize   int
	readTimeout time.Duration

	xmu sync.Mutex // serialises Exchange

	mu        sync.Mutex
	conn      serial.Port
	seq       int
	connected bool
}

// New creates a new Serial device. Zero baud rate and batch size select the
// firmware defaults. A zero read timeout blocks forever, like the device.
func New(port string, baudRate, batchSize int, readTimeout time.Duration) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}

	return &Serial{
		port:        port,
		baudRate:    baudRate,
		batchSize:   batchSize,
		readTimeout: readTimeout,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port (8N1).
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	if d.readTimeout > 0 {
		if err := port.SetReadTimeout(d.readTimeout); err != nil {
			port.Close()
			return fmt.Errorf("failed to set read timeout on %s: %w", d.port, err)
		}
	}

	// Drop anything left over from a previous session so the first report
	// lines up with the first trigger.
	if err := port.ResetInputBuffer(); err != nil {
		slog.Warn("failed to reset serial input buffer", "port", d.port, "error", err)
	}

	d.conn = port
	d.connected = true
	slog.Info("serial connected", "port", d.port, "baud", d.baudRate, "batch_size", d.batchSize)

	return nil
}

// Close closes the serial port. It does not wait for a pending Exchange;
// closing the port unblocks its read.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			slog.Error("failed to close serial port", "port", d.port, "error", err)
		}
		d.conn = nil
	}

	d.connected = false
	return nil
}

// Exchange runs one protocol cycle. It returns when ctx ends even if the
// device stays silent. A failure after the trigger closes the port; the
// caller has to Connect again.
func (d *Serial) Exchange(ctx context.Context, cmd tec.Command) (Batch, error) {
	d.xmu.Lock()
	defer d.xmu.Unlock()

	d.mu.Lock()
	conn, connected := d.conn, d.connected
	d.mu.Unlock()

	if !connected {
		return Batch{}, fmt.Errorf("not connected")
	}

	samples, err := exchange(ctx, conn, d.batchSize, cmd)
	if err != nil {
		if errors.Is(err, ErrLinkBroken) {
			d.drop(conn, err)
		}
		return Batch{}, fmt.Errorf("%s: %w", d.port, err)
	}

	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	return Batch{
		Seq:       seq,
		Timestamp: time.Now(),
		Samples:   samples,
		Command:   cmd,
	}, nil
}

// drop closes conn if it is still the active connection.
func (d *Serial) drop(conn serial.Port, cause error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != conn {
		return
	}
	conn.Close()
	d.conn = nil
	d.connected = false
	slog.Warn("serial link dropped", "port", d.port, "error", cause)
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}
