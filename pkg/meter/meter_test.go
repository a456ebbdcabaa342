package meter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotec/pkg/sample"
)

var t0 = time.Unix(1700000000, 0)

func stat(seq int, offset time.Duration, celsius float32) sample.Stats {
	return sample.Stats{Seq: seq, Timestamp: t0.Add(offset), Celsius: celsius}
}

func TestMeter_Rate(t *testing.T) {
	m := New(time.Minute)

	assert.Zero(t, m.Add(stat(1, 0, 20)))
	assert.Zero(t, m.Rate())

	assert.InDelta(t, 2.0, m.Add(stat(2, time.Second, 22)), 1e-6)
	assert.InDelta(t, -0.5, m.Add(stat(3, 3*time.Second, 21)), 1e-6)
	assert.InDelta(t, -0.5, m.Rate(), 1e-6)

	assert.Len(t, m.Stats(), 3)
	assert.Len(t, m.Rates(), 2)
}

func TestMeter_SameTimestamp(t *testing.T) {
	m := New(time.Minute)
	m.Add(stat(1, 0, 20))
	assert.Zero(t, m.Add(stat(2, 0, 30)), "no rate without elapsed time")
	assert.Len(t, m.Rates(), 1)
}

func TestMeter_Window(t *testing.T) {
	m := New(10 * time.Second)
	for i := 0; i < 20; i++ {
		m.Add(stat(i, time.Duration(i)*time.Second, float32(i)))
	}

	stats := m.Stats()
	require.NotEmpty(t, stats)
	assert.Equal(t, 19, stats[len(stats)-1].Seq)
	assert.Equal(t, 10, stats[0].Seq, "entries at or before the cutoff are dropped")
	assert.Len(t, m.Rates(), len(stats)-1)
	for _, r := range m.Rates() {
		assert.InDelta(t, 1.0, r, 1e-6)
	}
}

func TestMeter_WindowKeepsNewest(t *testing.T) {
	m := New(time.Second)
	m.Add(stat(1, 0, 1))
	m.Add(stat(2, time.Hour, 2))

	assert.Len(t, m.Stats(), 1)
	assert.Empty(t, m.Rates())
}

func TestMeter_OnUpdate(t *testing.T) {
	m := New(time.Minute)

	var calls int
	var lastRates []float32
	m.OnUpdate(func(stats []sample.Stats, rates []float32) {
		calls++
		lastRates = rates
		assert.Len(t, rates, len(stats)-1)
	})

	m.Add(stat(1, 0, 10))
	m.Add(stat(2, 2*time.Second, 14))

	assert.Equal(t, 2, calls)
	assert.Equal(t, []float32{2}, lastRates)
}

func TestMeter_ProcessStats(t *testing.T) {
	m := New(time.Minute)
	in := make(chan sample.Stats, 3)
	out := make(chan sample.Stats, 3)
	in <- stat(1, 0, 10)
	in <- stat(2, time.Second, 11)
	close(in)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.ProcessStats(in, out)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ProcessStats did not return after input closed")
	}

	var seqs []int
	for st := range out {
		seqs = append(seqs, st.Seq)
	}
	assert.Equal(t, []int{1, 2}, seqs)
	assert.InDelta(t, 1.0, m.Rate(), 1e-6)
}
