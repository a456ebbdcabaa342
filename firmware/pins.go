//go:build tinygo

package main

import "machine"

const (
	// Protocol configuration
	BATCH_SIZE = 400  // Samples per report, must match the host
	PWM_PERIOD = 1000 // Actuator period in timer units

	// PWM timing: 1000 units over 62.5us gives a 16kHz carrier
	PWM_PERIOD_NS = 62500

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // The core scales 10-bit conversions to 8-bit samples

	// H-bridge pins: PIN_PWM carries the duty, PIN_POLARITY selects the direction
	// (high = heat, low = cool)
	PIN_PWM      = machine.D2
	PIN_POLARITY = machine.D3

	// Status LED, on while cooling
	PIN_STATUS = machine.LED

	// Button with pull-up, falling edge clears the status LED
	PIN_BUTTON = machine.D1

	// Temperature sensor
	PIN_ADC = machine.A0

	// Serial configuration
	// 400 bytes per report at 115200 8N1 takes ~35ms
	UART_BAUD_RATE = 115200
)

var (
	uart   = machine.UART0
	pwmTCC = machine.TCC0
)
