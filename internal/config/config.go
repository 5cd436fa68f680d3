// Package config loads the touch-sensor daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/touch-sensor/internal/input"
	"github.com/sweeney/touch-sensor/internal/logic"
	"github.com/sweeney/touch-sensor/internal/mqtt"
)

// Input source kinds.
const (
	InputGPIO   = "gpio"
	InputSerial = "serial"
)

// DefaultThreshold is used for channels that do not set one. At the default
// 10ms poll interval it gives a 50ms settle time.
const DefaultThreshold = 5

// Config represents the daemon configuration.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Channels  []ChannelConfig `yaml:"channels"`
	Poll      time.Duration   `yaml:"poll"`
	Heartbeat time.Duration   `yaml:"heartbeat"` // 0 disables heartbeats
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// InputConfig selects where raw samples come from.
type InputConfig struct {
	Kind   string       `yaml:"kind"`
	GPIO   GPIOConfig   `yaml:"gpio"`
	Serial SerialConfig `yaml:"serial"`
}

// GPIOConfig contains GPIO character device settings.
type GPIOConfig struct {
	Chip      string `yaml:"chip"`
	PullUp    bool   `yaml:"pull_up"`
	ActiveLow bool   `yaml:"active_low"`
}

// SerialConfig contains serial port settings for an attached touch controller.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ChannelConfig describes one debounced input line.
type ChannelConfig struct {
	Name      string `yaml:"name"`
	Pin       int    `yaml:"pin"` // GPIO offset; ignored for serial input
	Threshold uint   `yaml:"threshold"`
}

// MQTTConfig contains broker settings.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	BufferSize  int    `yaml:"buffer_size"`
}

// HTTPConfig contains status server settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the server
}

// Default returns a configuration for two pads on the reference board.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Kind: InputGPIO,
			GPIO: GPIOConfig{Chip: "gpiochip0"},
			Serial: SerialConfig{
				Port:     "/dev/ttyACM0",
				BaudRate: input.DefaultBaudRate,
			},
		},
		Channels: []ChannelConfig{
			{Name: "pad1", Pin: input.DefaultPinPad1, Threshold: DefaultThreshold},
			{Name: "pad2", Pin: input.DefaultPinPad2, Threshold: DefaultThreshold},
		},
		Poll:      10 * time.Millisecond,
		Heartbeat: 15 * time.Minute,
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "touch-sensor",
			TopicPrefix: mqtt.DefaultTopicPrefix,
			BufferSize:  mqtt.DefaultBufferSize,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values. The result is validated.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// A channels list in the file replaces the default list as a whole.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ensureDefaults fills fields left empty in the file.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Input.Kind == "" {
		c.Input.Kind = def.Input.Kind
	}
	if c.Input.GPIO.Chip == "" {
		c.Input.GPIO.Chip = def.Input.GPIO.Chip
	}
	if c.Input.Serial.Port == "" {
		c.Input.Serial.Port = def.Input.Serial.Port
	}
	if c.Input.Serial.BaudRate == 0 {
		c.Input.Serial.BaudRate = def.Input.Serial.BaudRate
	}

	if len(c.Channels) == 0 {
		c.Channels = def.Channels
	}
	for i := range c.Channels {
		if c.Channels[i].Threshold == 0 {
			c.Channels[i].Threshold = DefaultThreshold
		}
	}

	if c.Poll == 0 {
		c.Poll = def.Poll
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}
	if c.MQTT.BufferSize == 0 {
		c.MQTT.BufferSize = def.MQTT.BufferSize
	}
}

// Validate reports configuration errors that would otherwise surface as
// panics or confusing hardware errors at startup.
func (c *Config) Validate() error {
	var errs []error

	switch c.Input.Kind {
	case InputGPIO, InputSerial:
	default:
		errs = append(errs, fmt.Errorf("unknown input kind %q", c.Input.Kind))
	}

	if len(c.Channels) == 0 {
		errs = append(errs, errors.New("no channels configured"))
	}
	seen := make(map[string]bool, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.Name == "" {
			errs = append(errs, fmt.Errorf("channel %d: missing name", i))
		} else if seen[ch.Name] {
			errs = append(errs, fmt.Errorf("channel %q: duplicate name", ch.Name))
		}
		seen[ch.Name] = true
		if ch.Threshold == 0 {
			errs = append(errs, fmt.Errorf("channel %q: threshold must be at least 1", ch.Name))
		}
	}

	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %v", c.Poll))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat))
	}

	return errors.Join(errs...)
}

// LogicChannels returns the channels in the form the detector expects.
func (c *Config) LogicChannels() []logic.Channel {
	out := make([]logic.Channel, len(c.Channels))
	for i, ch := range c.Channels {
		out[i] = logic.Channel{Name: ch.Name, Threshold: ch.Threshold}
	}
	return out
}

// Pins returns the GPIO offsets of the channels in order.
func (c *Config) Pins() []int {
	out := make([]int, len(c.Channels))
	for i, ch := range c.Channels {
		out[i] = ch.Pin
	}
	return out
}
