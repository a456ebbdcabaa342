package config

import (
	"os"
	"testing"
	"time"

	"github.com/itohio/gotec/pkg/tec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Zero(t, cfg.Serial.ReadTimeout)
	assert.Equal(t, 400, cfg.Protocol.BatchSize)
	assert.Equal(t, uint16(1000), cfg.Protocol.Period)
	assert.Equal(t, float64(3.3), cfg.Sensor.VRef)
	assert.Equal(t, float64(100), cfg.Sensor.Slope)
	assert.Equal(t, []Step{{Mode: "heat"}}, cfg.Schedule)
	assert.Equal(t, time.Second, cfg.CycleInterval)
	assert.Equal(t, 5*time.Second, cfg.Mock.TimeConstant)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tec", cfg.MQTT.TopicPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "COM3", cfg.Serial.Port)
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	_, err = tmpfile.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestLoad_ValidYAML(t *testing.T) {
	name := writeTemp(t, `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 57600
  read_timeout: 2s

protocol:
  batch_size: 200
  period: 500

sensor:
  vref: 5.0
  slope: 50
  offset: -10

schedule:
  - mode: heat
    duty: 200
    cycles: 10
  - mode: cool
    duty: 120
    cycles: 5

cycle_interval: 250ms

mock:
  ambient: 0.3
  time_constant: 2s

mqtt:
  enabled: true
  broker: broker.local
  device_id: lab-1

log:
  level: debug
  format: json
`)

	cfg, err := Load(name)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 57600, cfg.Serial.BaudRate)
	assert.Equal(t, 2*time.Second, cfg.Serial.ReadTimeout)
	assert.Equal(t, 200, cfg.Protocol.BatchSize)
	assert.Equal(t, uint16(500), cfg.Protocol.Period)
	assert.Equal(t, float64(5), cfg.Sensor.VRef)
	assert.Equal(t, float64(-10), cfg.Sensor.Offset)
	assert.Equal(t, []Step{
		{Mode: "heat", Duty: 200, Cycles: 10},
		{Mode: "cool", Duty: 120, Cycles: 5},
	}, cfg.Schedule)
	assert.Equal(t, 250*time.Millisecond, cfg.CycleInterval)
	assert.Equal(t, 0.3, cfg.Mock.Ambient)
	assert.Equal(t, 2*time.Second, cfg.Mock.TimeConstant)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "broker.local", cfg.MQTT.Broker)
	assert.Equal(t, 1883, cfg.MQTT.Port) // default
	assert.Equal(t, "lab-1", cfg.MQTT.DeviceID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, "invalid: yaml: content: ["))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	cfg, err := Load(writeTemp(t, `
serial:
  port: "/dev/ttyACM0"
`))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)       // default
	assert.Equal(t, 400, cfg.Protocol.BatchSize)       // default
	assert.Equal(t, uint16(1000), cfg.Protocol.Period) // default
	assert.Len(t, cfg.Schedule, 1)                     // default
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"bad mode", "schedule:\n  - mode: warm\n    duty: 1\n", `invalid mode "warm"`},
		{"negative cycles", "schedule:\n  - mode: cool\n    cycles: -1\n", "cycles must not be negative"},
		{"negative batch", "protocol:\n  batch_size: -4\n", "batch_size must be positive"},
		{"bad log format", "log:\n  format: xml\n", `invalid log.format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTemp(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Nil(t, cfg)
		})
	}
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Schedule = []Step{{Mode: "cool", Duty: 99, Cycles: 3}}

	name := writeTemp(t, "")
	require.NoError(t, cfg.Save(name))

	loaded, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, cfg.Schedule, loaded.Schedule)
}

func TestStep_Command(t *testing.T) {
	assert.Equal(t, tec.Command{Mode: tec.Heat, Duty: 200}, Step{Mode: "heat", Duty: 200}.Command())
	assert.Equal(t, tec.Command{Mode: tec.Cool, Duty: 7}, Step{Mode: "Cool", Duty: 7}.Command())
}
