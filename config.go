package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bind-address"`
	// SerialPort is the path to the module's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial-port"`
	// BaudRate is the baud rate of the module's UART (e.g. 115200)
	BaudRate int `yaml:"baud-rate"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log-level"`
	// DataDir holds the credentials database
	DataDir string `yaml:"data-dir"`
	// WifiMode is applied at startup ("station", "ap" or "ap+station")
	WifiMode string `yaml:"wifi-mode"`
	// ATTimeout bounds the wait for a command's terminal token
	ATTimeout time.Duration `yaml:"at-timeout"`

	// MqttBroker is the broker URL (e.g. "tcp://localhost:1883"), empty disables MQTT
	MqttBroker   string `yaml:"mqtt-broker"`
	MqttClientID string `yaml:"mqtt-client-id"`
	// MqttTopic is the prefix of the state and connect topics
	MqttTopic    string `yaml:"mqtt-topic"`
	MqttUsername string `yaml:"mqtt-username"`
	MqttPassword string `yaml:"mqtt-password"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.DataDir = "/var/lib/espwifi"
		c.WifiMode = "station"
		c.ATTimeout = 10 * time.Second
		c.MqttClientID = "espwifi"
		c.MqttTopic = "espwifi"
		return nil
	}
}

// WithFile overlays the keys present in a YAML file. An empty path is
// ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		// Keys missing from the file keep their current value.
		if err := yaml.Unmarshal(raw, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if dir := os.Getenv("DATA_DIR"); dir != "" {
			c.DataDir = dir
		}

		if mode := os.Getenv("WIFI_MODE"); mode != "" {
			c.WifiMode = mode
		}

		if timeout := os.Getenv("AT_TIMEOUT"); timeout != "" {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return fmt.Errorf("AT_TIMEOUT: %w", err)
			}
			c.ATTimeout = d
		}

		if broker := os.Getenv("MQTT_BROKER"); broker != "" {
			c.MqttBroker = broker
		}

		if id := os.Getenv("MQTT_CLIENT_ID"); id != "" {
			c.MqttClientID = id
		}

		if topic := os.Getenv("MQTT_TOPIC"); topic != "" {
			c.MqttTopic = topic
		}

		if user := os.Getenv("MQTT_USERNAME"); user != "" {
			c.MqttUsername = user
		}

		if pass := os.Getenv("MQTT_PASSWORD"); pass != "" {
			c.MqttPassword = pass
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, perr := strconv.Atoi(f.Value.String()); perr == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "data-dir":
				c.DataDir = f.Value.String()
			case "wifi-mode":
				c.WifiMode = f.Value.String()
			case "at-timeout":
				d, perr := time.ParseDuration(f.Value.String())
				if perr != nil {
					err = fmt.Errorf("-at-timeout: %w", perr)
					return
				}
				c.ATTimeout = d
			case "mqtt-broker":
				c.MqttBroker = f.Value.String()
			case "mqtt-topic":
				c.MqttTopic = f.Value.String()
			}
		})
		return err
	}
}
