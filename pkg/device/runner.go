package device

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itohio/gotec/pkg/config"
)

// Runner drives a Device through a command schedule, one Exchange per
// cycle, and streams the resulting batches.
type Runner struct {
	dev      Device
	steps    []config.Step
	interval time.Duration
	bufSize  int

	mu  sync.Mutex
	err error
}

// NewRunner creates a runner. A step with zero cycles repeats until the
// context is cancelled, so it only makes sense as the last step.
func NewRunner(dev Device, steps []config.Step, interval time.Duration, bufSize int) *Runner {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Runner{
		dev:      dev,
		steps:    steps,
		interval: interval,
		bufSize:  bufSize,
	}
}

// Run starts the schedule. The channel is closed when the schedule ends,
// ctx is cancelled or an exchange fails; Err reports why.
func (r *Runner) Run(ctx context.Context) <-chan Batch {
	out := make(chan Batch, r.bufSize)

	go func() {
		defer close(out)

		first := true
		for i, step := range r.steps {
			cmd := step.Command()
			slog.Info("schedule step", "step", i, "mode", cmd.Mode.String(), "duty", cmd.Duty, "cycles", step.Cycles)

			for n := 0; step.Cycles == 0 || n < step.Cycles; n++ {
				if !first && !r.wait(ctx) {
					r.setErr(ctx.Err())
					return
				}
				first = false

				batch, err := r.dev.Exchange(ctx, cmd)
				if err != nil {
					r.setErr(err)
					return
				}

				select {
				case out <- batch:
				case <-ctx.Done():
					r.setErr(ctx.Err())
					return
				}
			}
		}
	}()

	return out
}

// Err returns the error that stopped the schedule, or nil if it completed.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Runner) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// wait sleeps one interval; it returns false if ctx ends first.
func (r *Runner) wait(ctx context.Context) bool {
	if r.interval <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(r.interval)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
