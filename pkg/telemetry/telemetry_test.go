package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotec/pkg/config"
	"github.com/itohio/gotec/pkg/sample"
	"github.com/itohio/gotec/pkg/tec"
)

func testStats() sample.Stats {
	return sample.Stats{
		Seq:       12,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Count:     400,
		Min:       17,
		Max:       21,
		MeanRaw:   19,
		Volts:     0.25,
		StdDev:    0.01,
		Celsius:   25,
		Command:   tec.Command{Mode: tec.Cool, Duty: 180},
	}
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "tec/bench/telemetry", Topic("tec", "bench", "telemetry"))
	assert.Equal(t, "lab/tec-2/actuation", Topic("lab", "tec-2", "actuation"))
}

func TestNewTelemetry(t *testing.T) {
	tm := NewTelemetry("bench", testStats(), -0.5)

	data, err := json.Marshal(tm)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "bench", got["device_id"])
	assert.Equal(t, float64(12), got["seq"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["timestamp"])
	assert.Equal(t, float64(400), got["samples"])
	assert.Equal(t, float64(17), got["min_raw"])
	assert.Equal(t, float64(21), got["max_raw"])
	assert.Equal(t, float64(25), got["temperature_c"])
	assert.Equal(t, -0.5, got["rate_c_per_s"])
}

func TestNewActuation(t *testing.T) {
	a := NewActuation("bench", testStats())
	assert.Equal(t, "cool", a.Mode)
	assert.Equal(t, uint8(180), a.Duty)
	assert.Equal(t, 12, a.Seq)
}

func TestTimestamp_ZeroUsesNow(t *testing.T) {
	st := testStats()
	st.Timestamp = time.Time{}
	before := time.Now()
	tm := NewTelemetry("bench", st, 0)
	assert.False(t, tm.Timestamp.Before(before))
}

func TestNop(t *testing.T) {
	var s Sink = Nop{}
	assert.NoError(t, s.Publish(testStats(), 0))
	s.Close()
}

func TestPublisher_NotConnected(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewPublisher(config.Default().MQTT, logger)

	assert.False(t, p.IsConnected())
	err := p.Publish(testStats(), 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	p.Close()
	err = p.Connect(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "stopped")
}
