package telemetry

import (
	"fmt"
	"time"

	"github.com/itohio/gotec/pkg/sample"
)

// Sink receives every batch summary.
type Sink interface {
	Publish(st sample.Stats, rate float32) error
	Close()
}

// Telemetry is the JSON payload for one batch.
type Telemetry struct {
	DeviceID  string    `json:"device_id"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Samples   int       `json:"samples"`
	MinRaw    uint8     `json:"min_raw"`
	MaxRaw    uint8     `json:"max_raw"`
	Volts     float32   `json:"volts"`
	StdDev    float32   `json:"stddev_v"`
	Celsius   float32   `json:"temperature_c"`
	Rate      float32   `json:"rate_c_per_s"`
}

// Actuation is the JSON payload describing the command sent after a batch.
type Actuation struct {
	DeviceID  string    `json:"device_id"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
	Duty      uint8     `json:"duty"`
}

// NewTelemetry builds the telemetry payload.
func NewTelemetry(deviceID string, st sample.Stats, rate float32) Telemetry {
	return Telemetry{
		DeviceID:  deviceID,
		Seq:       st.Seq,
		Timestamp: timestamp(st.Timestamp),
		Samples:   st.Count,
		MinRaw:    st.Min,
		MaxRaw:    st.Max,
		Volts:     st.Volts,
		StdDev:    st.StdDev,
		Celsius:   st.Celsius,
		Rate:      rate,
	}
}

// NewActuation builds the actuation payload.
func NewActuation(deviceID string, st sample.Stats) Actuation {
	return Actuation{
		DeviceID:  deviceID,
		Seq:       st.Seq,
		Timestamp: timestamp(st.Timestamp),
		Mode:      st.Command.Mode.String(),
		Duty:      st.Command.Duty,
	}
}

// Topic returns "<prefix>/<deviceID>/<kind>".
func Topic(prefix, deviceID, kind string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, deviceID, kind)
}

func timestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(sample.Stats, float32) error { return nil }
func (Nop) Close()                              {}
