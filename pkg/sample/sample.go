package sample

import (
	"log/slog"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/gotec/pkg/config"
	"github.com/itohio/gotec/pkg/device"
	"github.com/itohio/gotec/pkg/tec"
)

// fullScale is the largest 8-bit sample.
const fullScale = 255

// Stats summarises one reported batch in physical units.
type Stats struct {
	Seq       int
	Timestamp time.Time
	Count     int
	Min       uint8
	Max       uint8
	MeanRaw   float32
	Volts     float32 // Mean sensor voltage (V)
	StdDev    float32 // Standard deviation of the sensor voltage (V)
	Celsius   float32 // Mean temperature (°C)
	Command   tec.Command
}

// Converter is a function type that converts a Batch channel to a Stats channel.
type Converter func(in <-chan device.Batch) <-chan Stats

// NewConverter creates a converter function that summarises every batch.
func NewConverter(cfg *config.Config, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 16
	}

	return func(in <-chan device.Batch) <-chan Stats {
		out := make(chan Stats, bufSize)

		go func() {
			defer close(out)

			for b := range in {
				select {
				case out <- Summarize(b, cfg.Sensor):
				case <-time.After(time.Second):
					slog.Warn("stats output channel full, dropping batch", "seq", b.Seq)
				}
			}
		}()

		return out
	}
}

// Volts converts an 8-bit sample to the sensor voltage.
func Volts(raw uint8, vref float64) float32 {
	return float32(raw) / fullScale * float32(vref)
}

// Celsius converts a sensor voltage to degrees.
func Celsius(volts float32, sensor config.SensorConfig) float32 {
	return float32(sensor.Offset) + float32(sensor.Slope)*volts
}

// Summarize computes batch statistics. An empty batch yields zero stats with
// the batch metadata.
func Summarize(b device.Batch, sensor config.SensorConfig) Stats {
	st := Stats{
		Seq:       b.Seq,
		Timestamp: b.Timestamp,
		Count:     len(b.Samples),
		Command:   b.Command,
	}
	if len(b.Samples) == 0 {
		return st
	}

	st.Min = b.Samples[0]
	st.Max = b.Samples[0]
	var sum float32
	for _, s := range b.Samples {
		if s < st.Min {
			st.Min = s
		}
		if s > st.Max {
			st.Max = s
		}
		sum += float32(s)
	}
	n := float32(len(b.Samples))
	st.MeanRaw = sum / n

	var sq float32
	for _, s := range b.Samples {
		d := float32(s) - st.MeanRaw
		sq += d * d
	}
	rawStdDev := math32.Sqrt(sq / n)

	scale := float32(sensor.VRef) / fullScale
	st.Volts = st.MeanRaw * scale
	st.StdDev = rawStdDev * scale
	st.Celsius = Celsius(st.Volts, sensor)

	return st
}
