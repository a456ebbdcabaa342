//go:build tinygo

package main

import (
	"machine"
	"runtime"

	"github.com/itohio/gotec/pkg/tec"
)

// pwmPeripheral is the subset of the TinyGo PWM/TCC API the H-bridge needs.
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// platform holds the peripherals after bring-up.
type platform struct {
	serial    uartSerial
	converter adcConverter
	pwm       *hbridgePWM
	status    tec.Output
	edge      buttonEdge
}

// platformInit brings up every peripheral the core uses. Call it once.
func platformInit() (*platform, error) {
	if err := uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE}); err != nil {
		return nil, err
	}

	machine.InitADC()
	PIN_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})
	adc := machine.ADC{Pin: PIN_ADC}
	adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	PIN_STATUS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_POLARITY.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_BUTTON.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	if err := pwmTCC.Configure(machine.PWMConfig{Period: PWM_PERIOD_NS}); err != nil {
		return nil, err
	}
	ch, err := pwmTCC.Channel(PIN_PWM)
	if err != nil {
		return nil, err
	}
	// Start idle: no drive, heat direction.
	pwmTCC.Set(ch, 0)
	PIN_POLARITY.High()

	return &platform{
		serial:    uartSerial{uart: uart},
		converter: adcConverter{adc: adc},
		pwm:       &hbridgePWM{pwm: pwmTCC, ch: ch, dir: PIN_POLARITY},
		status:    tec.OutputFunc(PIN_STATUS.Set),
	}, nil
}

// registerEdgeHandler binds fn to the falling edge of the button.
func registerEdgeHandler(fn func()) error {
	return PIN_BUTTON.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		fn()
	})
}

// uartSerial blocks on both directions, without a timeout.
type uartSerial struct {
	uart *machine.UART
}

func (s uartSerial) ReadByte() (byte, error) {
	for s.uart.Buffered() == 0 {
		runtime.Gosched()
	}
	return s.uart.ReadByte()
}

func (s uartSerial) WriteByte(c byte) error {
	return s.uart.WriteByte(c)
}

// adcConverter returns 10-bit readings. TinyGo left-aligns every ADC result
// to 16 bits.
type adcConverter struct {
	adc machine.ADC
}

func (c adcConverter) Read() uint16 {
	return c.adc.Get() >> 6
}

// hbridgePWM drives one PWM channel plus a direction pin.
type hbridgePWM struct {
	pwm pwmPeripheral
	ch  uint8
	dir machine.Pin
}

// Configure drops the output to zero before switching direction, so the
// bridge never drives the new direction with the old duty or the old
// direction with the new one. The channel is written with the on-time, which
// for the active-low cooling leg is the complement of the compare value.
func (h *hbridgePWM) Configure(period, duty uint16, polarity tec.Polarity) error {
	if period == 0 {
		period = tec.DefaultPeriod
	}
	top := uint64(h.pwm.Top())
	on := uint64(tec.OnTime(period, duty, polarity))
	h.pwm.Set(h.ch, 0)
	h.dir.Set(polarity == tec.PolarityHeat)
	h.pwm.Set(h.ch, uint32(on*top/uint64(period)))
	return nil
}

// buttonEdge has nothing to acknowledge: the TinyGo runtime clears the
// external interrupt flag before it calls the pin handler.
type buttonEdge struct{}

func (buttonEdge) Ack() {}
