package meter

import (
	"sync"
	"time"

	"github.com/itohio/gotec/pkg/sample"
)

// Meter keeps a time window of batch statistics and the temperature rate
// between consecutive batches. It only observes; it never feeds back into
// the command stream.
type Meter struct {
	window time.Duration

	// stats and rates are FIFOs ordered oldest first.
	// rates[i] is the rate from stats[i] to stats[i+1], so len(rates) is
	// len(stats)-1 whenever stats is non-empty.
	mu    sync.RWMutex
	stats []sample.Stats
	rates []float32

	callbacks []func(stats []sample.Stats, rates []float32)
	cbMu      sync.RWMutex
}

// New creates a meter that keeps stats no older than window relative to the
// newest one.
func New(window time.Duration) *Meter {
	return &Meter{window: window}
}

// ProcessStats consumes input until it closes, passing each item on to out
// when out is non-nil.
func (m *Meter) ProcessStats(input <-chan sample.Stats, out chan<- sample.Stats) {
	if out != nil {
		defer close(out)
	}
	for st := range input {
		m.Add(st)
		if out != nil {
			out <- st
		}
	}
}

// Add appends st, drops entries outside the window and notifies callbacks.
// It returns the rate into st in °C per second, or 0 for the first entry.
func (m *Meter) Add(st sample.Stats) float32 {
	m.mu.Lock()

	var rate float32
	if n := len(m.stats); n > 0 {
		prev := m.stats[n-1]
		dt := float32(st.Timestamp.Sub(prev.Timestamp).Seconds())
		if dt > 0 {
			rate = (st.Celsius - prev.Celsius) / dt
		}
		m.rates = append(m.rates, rate)
	}
	m.stats = append(m.stats, st)

	cutoff := st.Timestamp.Add(-m.window)
	drop := 0
	for drop < len(m.stats)-1 && !m.stats[drop].Timestamp.After(cutoff) {
		drop++
	}
	if drop > 0 {
		m.stats = m.stats[drop:]
		m.rates = m.rates[drop:]
	}

	stats := append([]sample.Stats(nil), m.stats...)
	rates := append([]float32(nil), m.rates...)
	m.mu.Unlock()

	m.notify(stats, rates)
	return rate
}

// Stats returns a copy of the windowed stats, oldest first.
func (m *Meter) Stats() []sample.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]sample.Stats(nil), m.stats...)
}

// Rates returns a copy of the windowed rates, oldest first.
func (m *Meter) Rates() []float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]float32(nil), m.rates...)
}

// Rate returns the most recent rate, or 0 if there is none yet.
func (m *Meter) Rate() float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.rates) == 0 {
		return 0
	}
	return m.rates[len(m.rates)-1]
}

// OnUpdate registers a callback invoked after every Add.
func (m *Meter) OnUpdate(fn func(stats []sample.Stats, rates []float32)) {
	m.cbMu.Lock()
	m.callbacks = append(m.callbacks, fn)
	m.cbMu.Unlock()
}

func (m *Meter) notify(stats []sample.Stats, rates []float32) {
	m.cbMu.RLock()
	defer m.cbMu.RUnlock()
	for _, fn := range m.callbacks {
		fn(stats, rates)
	}
}
