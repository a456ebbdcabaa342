//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"time"

	"github.com/itohio/gotec/pkg/tec"
)

func main() {
	hw, err := platformInit()
	if err != nil {
		halt("platform init", err)
	}

	status := tec.NewStatus(hw.status)
	indicator := tec.NewIndicator(status, hw.edge)
	if err := registerEdgeHandler(indicator.HandleEdge); err != nil {
		halt("edge handler", err)
	}

	proto, err := tec.NewProtocol(tec.Options{
		Serial:    hw.serial,
		Converter: hw.converter,
		Buffer:    tec.NewBuffer(BATCH_SIZE),
		Actuator:  tec.NewActuator(hw.pwm, status, PWM_PERIOD),
		BatchSize: BATCH_SIZE,
		Order:     tec.ReportThenCapture,
	})
	if err != nil {
		halt("protocol", err)
	}

	// Run only returns if the UART reports an error.
	err = proto.Run()
	if perr := hw.pwm.Configure(PWM_PERIOD, 0, tec.PolarityHeat); perr != nil {
		println("halt: pwm off", perr.Error())
	}
	halt("protocol loop", err)
}

// halt parks the MCU and keeps printing err on the debug console.
func halt(what string, err error) {
	for {
		println("halt:", what, err.Error())
		time.Sleep(time.Second)
	}
}
