package tec

import "sync/atomic"

// DefaultPeriod is the PWM period in timer units.
const DefaultPeriod = 1000

// State is the configured actuation: polarity plus the compare value
// written to the PWM.
type State struct {
	Polarity Polarity
	Duty     uint16
	// Saturated is set when the requested duty exceeded the period and was
	// clamped.
	Saturated bool
}

// Actuator turns commands into PWM and polarity settings.
type Actuator struct {
	pwm    PWM
	status *Status
	period uint16

	state  State
	faults atomic.Uint32
}

// NewActuator creates an actuator driving pwm with a fixed period.
// A zero period selects DefaultPeriod.
func NewActuator(pwm PWM, status *Status, period uint16) *Actuator {
	if period == 0 {
		period = DefaultPeriod
	}
	return &Actuator{pwm: pwm, status: status, period: period}
}

// Period returns the configured PWM period.
func (a *Actuator) Period() uint16 { return a.period }

// Resolve computes the actuation state for cmd without touching hardware.
// Heat uses the duty as the compare value; Cool uses its complement against
// the period. Either way the duty is first clamped to [0, period].
func (a *Actuator) Resolve(cmd Command) State {
	duty := uint16(cmd.Duty)
	saturated := false
	if duty > a.period {
		duty = a.period
		saturated = true
	}
	if cmd.Mode == Heat {
		return State{Polarity: PolarityHeat, Duty: duty, Saturated: saturated}
	}
	return State{Polarity: PolarityCool, Duty: a.period - duty, Saturated: saturated}
}

// Apply reconfigures the output for cmd. Polarity and compare value go out
// in one PWM call; the status signal follows (off for heat, on for cool).
// A saturated duty is counted in Faults and never rejected.
func (a *Actuator) Apply(cmd Command) (State, error) {
	st := a.Resolve(cmd)
	if st.Saturated {
		a.faults.Add(1)
	}
	if err := a.pwm.Configure(a.period, st.Duty, st.Polarity); err != nil {
		return a.state, err
	}
	a.state = st
	if a.status != nil {
		a.status.Set(st.Polarity == PolarityCool)
	}
	return st, nil
}

// OnTime returns how many timer units per period the element is energised
// for a compare value. The cooling leg is active-low, so its compare value
// counts the off time.
func OnTime(period, compare uint16, polarity Polarity) uint16 {
	if compare > period {
		compare = period
	}
	if polarity == PolarityCool {
		return period - compare
	}
	return compare
}

// State returns the last applied state.
func (a *Actuator) State() State { return a.state }

// Faults returns the number of commands whose duty had to be clamped.
func (a *Actuator) Faults() uint32 { return a.faults.Load() }
