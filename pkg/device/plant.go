package device

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/itohio/gotec/pkg/config"
	"github.com/itohio/gotec/pkg/tec"
)

// plant simulates the sensor and the thermo-electric element behind the
// mock's PWM and converter. It implements tec.PWM and tec.Converter.
type plant struct {
	mu sync.Mutex

	ambient  float32
	heatRate float32
	coolRate float32
	vref     float32
	alpha    float32 // per-sample first-order smoothing factor
	noise    float32

	voltage  float32
	polarity tec.Polarity
	duty     uint16
	period   uint16
	reads    int
}

func newPlant(mock config.MockConfig, vref float64) *plant {
	dt := float32(mock.SampleRate.Seconds())
	tau := float32(mock.TimeConstant.Seconds())
	alpha := float32(1)
	if tau > 0 {
		alpha = 1 - math32.Exp(-dt/tau)
	}
	if vref <= 0 {
		vref = 3.3
	}

	return &plant{
		ambient:  float32(mock.Ambient),
		heatRate: float32(mock.HeatRate),
		coolRate: float32(mock.CoolRate),
		vref:     float32(vref),
		alpha:    alpha,
		noise:    float32(mock.NoiseLevel),
		voltage:  float32(mock.Ambient),
		period:   tec.DefaultPeriod,
	}
}

// Configure latches the drive under one lock, matching the atomic contract
// of tec.PWM.
func (p *plant) Configure(period, duty uint16, polarity tec.Polarity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.period = period
	p.duty = duty
	p.polarity = polarity
	return nil
}

// drive returns the signed drive fraction in [-1, 1].
func (p *plant) drive() float32 {
	if p.period == 0 {
		return 0
	}
	frac := float32(tec.OnTime(p.period, p.duty, p.polarity)) / float32(p.period)
	if p.polarity == tec.PolarityCool {
		return -frac
	}
	return frac
}

// Read advances the simulation by one sample period and converts the sensor
// voltage to a 10-bit reading.
func (p *plant) Read() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	d := p.drive()
	target := p.ambient
	if d >= 0 {
		target += d * p.heatRate
	} else {
		target += d * p.coolRate
	}
	p.voltage += p.alpha * (target - p.voltage)

	p.reads++
	v := p.voltage + p.noise*math32.Sin(float32(p.reads)*0.7)

	raw := v / p.vref * 1023
	if raw < 0 {
		raw = 0
	} else if raw > 1023 {
		raw = 1023
	}
	return uint16(raw)
}

// Drive reports the currently latched polarity and compare value.
func (p *plant) Drive() (tec.Polarity, uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polarity, p.duty
}

// Voltage reports the noiseless sensor voltage.
func (p *plant) Voltage() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voltage
}
