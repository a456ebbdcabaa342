package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/itohio/gotec/pkg/config"
	"github.com/itohio/gotec/pkg/tec"
)

// Mock runs the real device core in a goroutine, wired to a simulated plant
// instead of hardware, and talks to it over an in-memory pipe.
type Mock struct {
	cfg *config.Config

	xmu sync.Mutex // serialises Exchange

	mu        sync.Mutex
	host      net.Conn
	dev       net.Conn
	done      chan struct{}
	connected bool
	seq       int

	plant     *plant
	status    *tec.Status
	indicator *tec.Indicator
	actuator  *tec.Actuator
}

// NewMock creates a mocked device. A nil cfg selects config.Default().
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Mock{cfg: cfg}
}

// Connect builds a fresh device core and starts its protocol loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.plant = newPlant(m.cfg.Mock, m.cfg.Sensor.VRef)
	m.status = tec.NewStatus(nil)
	m.indicator = tec.NewIndicator(m.status, nil)
	m.actuator = tec.NewActuator(m.plant, m.status, m.cfg.Protocol.Period)

	host, dev := net.Pipe()
	proto, err := tec.NewProtocol(tec.Options{
		Serial:    newPipeSerial(dev),
		Converter: m.plant,
		Buffer:    tec.NewBuffer(m.cfg.Protocol.BatchSize),
		Actuator:  m.actuator,
		BatchSize: m.cfg.Protocol.BatchSize,
		Order:     tec.ReportThenCapture,
	})
	if err != nil {
		host.Close()
		dev.Close()
		return fmt.Errorf("failed to build mock device: %w", err)
	}

	m.host = host
	m.dev = dev
	m.done = make(chan struct{})
	m.connected = true
	m.seq = 0

	go func(done chan struct{}) {
		defer close(done)
		err := proto.Run()
		if err != nil && !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, io.EOF) {
			slog.Error("mock device stopped", "error", err)
		}
	}(m.done)

	return nil
}

// Close stops the mocked device and waits for its loop to exit.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	return nil
}

// drop stops the device if host is still its active connection.
func (m *Mock) drop(host net.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.host == host {
		m.stopLocked()
	}
}

func (m *Mock) stopLocked() {
	if !m.connected {
		return
	}
	m.host.Close()
	m.dev.Close()
	<-m.done
	m.connected = false
}

// Exchange runs one protocol cycle against the simulated device.
// Close may be called concurrently; it unblocks a pending Exchange. A
// failure after the trigger stops the device; Connect starts a fresh one.
func (m *Mock) Exchange(ctx context.Context, cmd tec.Command) (Batch, error) {
	m.xmu.Lock()
	defer m.xmu.Unlock()

	m.mu.Lock()
	host, connected := m.host, m.connected
	m.mu.Unlock()

	if !connected {
		return Batch{}, fmt.Errorf("not connected")
	}

	samples, err := exchange(ctx, host, m.cfg.Protocol.BatchSize, cmd)
	if err != nil {
		if errors.Is(err, ErrLinkBroken) {
			m.drop(host)
		}
		return Batch{}, fmt.Errorf("mock: %w", err)
	}

	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	return Batch{
		Seq:       seq,
		Timestamp: time.Now(),
		Samples:   samples,
		Command:   cmd,
	}, nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// PressButton fires the simulated button edge, as the interrupt would.
func (m *Mock) PressButton() {
	m.mu.Lock()
	ind := m.indicator
	m.mu.Unlock()
	if ind != nil {
		ind.HandleEdge()
	}
}

// Status reports the simulated status LED.
func (m *Mock) Status() bool {
	m.mu.Lock()
	st := m.status
	m.mu.Unlock()
	return st != nil && st.On()
}

// Drive reports the polarity and compare value latched into the simulated PWM.
func (m *Mock) Drive() (tec.Polarity, uint16) {
	m.mu.Lock()
	p := m.plant
	m.mu.Unlock()
	if p == nil {
		return tec.PolarityHeat, 0
	}
	return p.Drive()
}

// pipeSerial gives the device core byte-at-a-time access to its pipe end.
type pipeSerial struct {
	r *bufio.Reader
	w io.Writer
	b [1]byte
}

func newPipeSerial(conn net.Conn) *pipeSerial {
	return &pipeSerial{r: bufio.NewReader(conn), w: conn}
}

func (s *pipeSerial) ReadByte() (byte, error) { return s.r.ReadByte() }

func (s *pipeSerial) WriteByte(c byte) error {
	s.b[0] = c
	_, err := s.w.Write(s.b[:])
	return err
}
