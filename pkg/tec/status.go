package tec

import "sync/atomic"

// Status is the single-bit indicator shared by the main loop and the edge
// handler. Both writers store a whole value; there is no read-modify-write,
// so a reader never sees a torn value. The order between the actuator's
// write and the edge handler's clear is not defined: whichever store runs
// last wins.
type Status struct {
	on  atomic.Bool
	out Output
}

// NewStatus wraps an output pin. out may be nil.
func NewStatus(out Output) *Status {
	return &Status{out: out}
}

// Set stores the new value and drives the pin.
func (s *Status) Set(on bool) {
	s.on.Store(on)
	if s.out != nil {
		s.out.Set(on)
	}
}

// On reports the last stored value.
func (s *Status) On() bool { return s.on.Load() }

// Indicator handles the external button edge.
type Indicator struct {
	status *Status
	src    EdgeSource
	events atomic.Uint32
}

// NewIndicator binds the edge handler to the status signal and the edge
// source it must acknowledge. src may be nil when the platform clears the
// flag itself.
func NewIndicator(status *Status, src EdgeSource) *Indicator {
	return &Indicator{status: status, src: src}
}

// HandleEdge runs in interrupt context: clear the status, then acknowledge
// the edge. It must stay non-blocking.
func (ind *Indicator) HandleEdge() {
	ind.status.Set(false)
	if ind.src != nil {
		ind.src.Ack()
	}
	ind.events.Add(1)
}

// Events returns how many edges have been handled.
func (ind *Indicator) Events() uint32 { return ind.events.Load() }
