package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotec/pkg/config"
	"github.com/itohio/gotec/pkg/tec"
)

func collect(t *testing.T, ch <-chan Batch) []Batch {
	t.Helper()
	var out []Batch
	timeout := time.After(5 * time.Second)
	for {
		select {
		case b, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, b)
		case <-timeout:
			t.Fatal("runner did not finish within timeout")
			return nil
		}
	}
}

func TestRunner_Schedule(t *testing.T) {
	m := connectedMock(t, fastPlant())

	steps := []config.Step{
		{Mode: "heat", Duty: 100, Cycles: 2},
		{Mode: "cool", Duty: 50, Cycles: 1},
	}
	r := NewRunner(m, steps, 0, 0)

	batches := collect(t, r.Run(context.Background()))
	require.NoError(t, r.Err())
	require.Len(t, batches, 3)

	assert.Equal(t, tec.Command{Mode: tec.Heat, Duty: 100}, batches[0].Command)
	assert.Equal(t, tec.Command{Mode: tec.Heat, Duty: 100}, batches[1].Command)
	assert.Equal(t, tec.Command{Mode: tec.Cool, Duty: 50}, batches[2].Command)
	for i, b := range batches {
		assert.Equal(t, i+1, b.Seq)
	}
}

func TestRunner_Cancel(t *testing.T) {
	m := connectedMock(t, fastPlant())

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunner(m, []config.Step{{Mode: "heat", Duty: 10}}, time.Millisecond, 1)
	ch := r.Run(ctx)

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range ch {
			received++
			if received == 3 {
				cancel()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batches channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3)
	assert.ErrorIs(t, r.Err(), context.Canceled)
}

func TestRunner_ExchangeError(t *testing.T) {
	m := NewMock(fastPlant()) // never connected

	r := NewRunner(m, []config.Step{{Mode: "heat", Cycles: 5}}, 0, 0)
	batches := collect(t, r.Run(context.Background()))

	assert.Empty(t, batches)
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "not connected")
}
