package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/itohio/gotec/pkg/config"
	"github.com/itohio/gotec/pkg/device"
	"github.com/itohio/gotec/pkg/meter"
	"github.com/itohio/gotec/pkg/sample"
	"github.com/itohio/gotec/pkg/telemetry"
)

// rateWindow bounds the history the meter keeps for the rate estimate.
const rateWindow = time.Minute

// measurementChain tracks the pipeline goroutines for shutdown.
type measurementChain struct {
	runner *device.Runner
	meter  *meter.Meter
	done   chan struct{}
	count  int
}

// startChain wires runner -> converter -> meter and reports every batch
// through the logger and sink.
func startChain(ctx context.Context, cfg *config.Config, dev device.Device, sink telemetry.Sink, logger *slog.Logger) *measurementChain {
	chain := &measurementChain{
		runner: device.NewRunner(dev, cfg.Schedule, cfg.CycleInterval, 16),
		meter:  meter.New(rateWindow),
		done:   make(chan struct{}),
	}

	// Callbacks run on the meter goroutine, so count needs no lock until
	// done is closed.
	chain.meter.OnUpdate(func(stats []sample.Stats, rates []float32) {
		chain.count++
		st := stats[len(stats)-1]
		var rate float32
		if len(rates) > 0 {
			rate = rates[len(rates)-1]
		}
		report(logger, sink, st, rate)
	})

	batches := chain.runner.Run(ctx)
	stats := sample.NewConverter(cfg, 16)(batches)

	go func() {
		defer close(chain.done)
		chain.meter.ProcessStats(stats, nil)
	}()

	return chain
}

// wait blocks until the pipeline drains and returns the batch count.
func (c *measurementChain) wait() int {
	<-c.done
	return c.count
}

func report(logger *slog.Logger, sink telemetry.Sink, st sample.Stats, rate float32) {
	logger.Info("batch",
		"seq", st.Seq,
		"mode", st.Command.Mode.String(),
		"duty", st.Command.Duty,
		"mean_raw", st.MeanRaw,
		"volts", st.Volts,
		"celsius", st.Celsius,
		"rate", rate,
	)
	if err := sink.Publish(st, rate); err != nil {
		logger.Warn("telemetry publish failed", "seq", st.Seq, "error", err)
	}
}
