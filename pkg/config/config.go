package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/itohio/gotec/pkg/tec"
	"gopkg.in/yaml.v3"
)

// Config represents the host tool configuration.
type Config struct {
	Serial        SerialConfig   `yaml:"serial"`
	Protocol      ProtocolConfig `yaml:"protocol"`
	Sensor        SensorConfig   `yaml:"sensor"`
	Schedule      []Step         `yaml:"schedule"`
	CycleInterval time.Duration  `yaml:"cycle_interval"`
	Mock          MockConfig     `yaml:"mock"`
	MQTT          MQTTConfig     `yaml:"mqtt"`
	Log           LogConfig      `yaml:"log"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"` // 0 blocks like the device does
}

// ProtocolConfig must match the constants flashed into the firmware.
type ProtocolConfig struct {
	BatchSize int    `yaml:"batch_size"`
	Period    uint16 `yaml:"period"`
}

// SensorConfig converts 8-bit samples to physical units.
// Celsius = Offset + Slope * volts.
type SensorConfig struct {
	VRef   float64 `yaml:"vref"`
	Slope  float64 `yaml:"slope"`  // °C per volt
	Offset float64 `yaml:"offset"` // °C at 0V
}

// Step is one entry of the command schedule.
type Step struct {
	Mode   string `yaml:"mode"` // "heat" or "cool"
	Duty   uint8  `yaml:"duty"`
	Cycles int    `yaml:"cycles"` // 0 repeats forever
}

// Command converts the step to the command sent on every cycle of the step.
func (s Step) Command() tec.Command {
	mode := tec.Heat
	if strings.EqualFold(s.Mode, "cool") {
		mode = tec.Cool
	}
	return tec.Command{Mode: mode, Duty: s.Duty}
}

// MockConfig contains the simulated plant parameters.
type MockConfig struct {
	Ambient      float64       `yaml:"ambient"`       // Ambient sensor voltage (V)
	HeatRate     float64       `yaml:"heat_rate"`     // Steady-state rise at full heat duty (V)
	CoolRate     float64       `yaml:"cool_rate"`     // Steady-state drop at full cool duty (V)
	TimeConstant time.Duration `yaml:"time_constant"` // First-order plant time constant
	NoiseLevel   float64       `yaml:"noise_level"`   // Noise amplitude (V)
	SampleRate   time.Duration `yaml:"sample_rate"`   // Simulated time between conversions
}

// MQTTConfig contains telemetry publisher configuration.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	DeviceID    string `yaml:"device_id"`
}

// LogConfig selects the log level and output format ("text" or "json").
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Protocol: ProtocolConfig{
			BatchSize: 400,
			Period:    1000,
		},
		Sensor: SensorConfig{
			VRef:   3.3,
			Slope:  100.0, // LM35: 10mV/°C
			Offset: 0.0,
		},
		Schedule: []Step{
			{Mode: "heat", Duty: 0, Cycles: 0},
		},
		CycleInterval: time.Second,
		Mock: MockConfig{
			Ambient:      0.25,
			HeatRate:     0.5,
			CoolRate:     0.2,
			TimeConstant: 5 * time.Second,
			NoiseLevel:   0.002,
			SampleRate:   time.Millisecond,
		},
		MQTT: MQTTConfig{
			Enabled:     false,
			Broker:      "localhost",
			Port:        1883,
			ClientID:    "tecctl",
			TopicPrefix: "tec",
			DeviceID:    "bench",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	for i, s := range c.Schedule {
		switch strings.ToLower(s.Mode) {
		case "heat", "cool":
		default:
			return fmt.Errorf("schedule[%d]: invalid mode %q (allowed: heat, cool)", i, s.Mode)
		}
		if s.Cycles < 0 {
			return fmt.Errorf("schedule[%d]: cycles must not be negative, got %d", i, s.Cycles)
		}
	}
	if c.Protocol.BatchSize <= 0 {
		return fmt.Errorf("protocol.batch_size must be positive, got %d", c.Protocol.BatchSize)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q (allowed: text, json)", c.Log.Format)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Protocol.BatchSize == 0 {
		c.Protocol.BatchSize = def.Protocol.BatchSize
	}
	if c.Protocol.Period == 0 {
		c.Protocol.Period = def.Protocol.Period
	}

	if c.Sensor.VRef == 0 {
		c.Sensor.VRef = def.Sensor.VRef
	}
	if c.Sensor.Slope == 0 {
		c.Sensor.Slope = def.Sensor.Slope
	}

	if len(c.Schedule) == 0 {
		c.Schedule = def.Schedule
	}
	if c.CycleInterval == 0 {
		c.CycleInterval = def.CycleInterval
	}

	if c.Mock.TimeConstant == 0 {
		c.Mock.TimeConstant = def.Mock.TimeConstant
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = def.MQTT.Port
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}
	if c.MQTT.DeviceID == "" {
		c.MQTT.DeviceID = def.MQTT.DeviceID
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}
