package tec

// Polarity selects which direction the thermo-electric element is driven.
type Polarity uint8

const (
	// PolarityHeat drives current through the element in the heating direction.
	PolarityHeat Polarity = iota
	// PolarityCool reverses the current for cooling.
	PolarityCool
)

func (p Polarity) String() string {
	if p == PolarityHeat {
		return "heat"
	}
	return "cool"
}

// Converter yields the latest analog-to-digital conversion.
// Read blocks (or polls) until a conversion is ready and returns the raw
// 10-bit value.
type Converter interface {
	Read() uint16
}

// PWM is the actuator output. Configure commits the period, the compare
// value and the polarity together: no caller may observe the new polarity
// with the old compare value or vice versa.
type PWM interface {
	Configure(period, duty uint16, polarity Polarity) error
}

// Output is a single binary output pin.
type Output interface {
	Set(on bool)
}

// EdgeSource is the hardware side of the button interrupt.
// Ack clears the pending edge flag so the same edge does not re-trigger.
type EdgeSource interface {
	Ack()
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func() uint16

func (f ConverterFunc) Read() uint16 { return f() }

// OutputFunc adapts a plain function to Output.
type OutputFunc func(on bool)

func (f OutputFunc) Set(on bool) { f(on) }
