package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the host-side configuration shared by dhtnode and dhtmon.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Node        NodeConfig        `yaml:"node"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// NodeConfig describes a hosted node.
type NodeConfig struct {
	Sensor       string        `yaml:"sensor"`        // dht11 or dht22
	Pin          string        `yaml:"pin"`           // GPIO name for periph; empty selects the simulated sensor
	PollInterval time.Duration `yaml:"poll_interval"` // Sleep between probes of the sample flag
	TimeScale    uint32        `yaml:"time_scale"`    // Speeds up the timer for demos (1 = real time)
	SamplePeriod time.Duration `yaml:"sample_period"`
}

// MeasurementConfig contains monitor parameters.
type MeasurementConfig struct {
	WindowSeconds        float64 `yaml:"window_seconds"`
	AverageSamples       int     `yaml:"average_samples"`        // Number of samples to average (0 = disabled, default)
	HumidityLimit        float64 `yaml:"humidity_limit"`         // %RH above which an excursion starts
	MinExcursionDuration float64 `yaml:"min_excursion_duration"` // Minimum excursion duration in seconds (filters noise)
}

// MockConfig contains simulated sensor configuration.
type MockConfig struct {
	Temperature float64 `yaml:"temperature"` // Mean temperature (°C)
	Humidity    float64 `yaml:"humidity"`    // Mean relative humidity (%)
	Noise       float64 `yaml:"noise"`       // Peak noise added to both values
	FailEvery   int     `yaml:"fail_every"`  // Every n-th read fails with a checksum error (0 = never)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 57600,
		},
		Node: NodeConfig{
			Sensor:       "dht11",
			PollInterval: 100 * time.Millisecond,
			TimeScale:    1,
			SamplePeriod: 10 * time.Second,
		},
		Measurement: MeasurementConfig{
			WindowSeconds:        600,
			AverageSamples:       0, // No averaging by default
			HumidityLimit:        60,
			MinExcursionDuration: 30,
		},
		Mock: MockConfig{
			Temperature: 22.5,
			Humidity:    45,
			Noise:       1.5,
			FailEvery:   0,
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

// ensureDefaults fills zero values a partial file left behind.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Node.Sensor == "" {
		c.Node.Sensor = def.Node.Sensor
	}
	if c.Node.PollInterval <= 0 {
		c.Node.PollInterval = def.Node.PollInterval
	}
	if c.Node.TimeScale == 0 {
		c.Node.TimeScale = def.Node.TimeScale
	}
	if c.Node.SamplePeriod <= 0 {
		c.Node.SamplePeriod = def.Node.SamplePeriod
	}

	if c.Measurement.WindowSeconds <= 0 {
		c.Measurement.WindowSeconds = def.Measurement.WindowSeconds
	}
	if c.Measurement.HumidityLimit <= 0 {
		c.Measurement.HumidityLimit = def.Measurement.HumidityLimit
	}

	if c.Mock.Humidity <= 0 {
		c.Mock.Humidity = def.Mock.Humidity
	}
}
