// Package env provides the configuration shared by the binaries.
//
// Values come from, in increasing priority: built-in defaults and
// GPIOCMD_* environment variables, the YAML file given by -config, and
// flags set on the command line.
package env

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/gpiocmd/pkg/queue"
)

// Config provides common options of the daemon and the shell.
type Config struct {
	// DeviceID names the device on MQTT.
	DeviceID    string `yaml:"device_id"`
	Description string `yaml:"description"`

	// MQTTURL specifies the MQTT broker to use, empty disables MQTT.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTURL string `yaml:"mqtt_url"`

	SerialPort string `yaml:"serial_port"`
	SerialBaud int    `yaml:"serial_baud"`

	// WebsocketAddr is the listen address, empty disables websocket.
	WebsocketAddr string `yaml:"websocket_addr"`

	// Stdio feeds stdin to the interpreter and writes responses to stdout.
	Stdio bool `yaml:"stdio"`

	QueueCapacity int `yaml:"queue_capacity"`
	ChunkSize     int `yaml:"chunk_size"`
}

// Environment variables overriding the defaults.
const (
	EnvDeviceID   = "GPIOCMD_DEVICE_ID"
	EnvMQTTURL    = "GPIOCMD_MQTT_URL"
	EnvSerial     = "GPIOCMD_SERIAL"
	EnvSerialBaud = "GPIOCMD_SERIAL_BAUD"
	EnvWSAddr     = "GPIOCMD_WS_ADDR"
)

var (
	builtinConfig = Config{
		SerialBaud:    115200,
		QueueCapacity: queue.DefaultCapacity,
		ChunkSize:     64,
	}

	defaultConfig Config
	configFile    string
)

func init() {
	defaultConfig = FromEnv(builtinConfig, os.LookupEnv)
}

// FromEnv applies environment variables found by lookup onto conf.
func FromEnv(conf Config, lookup func(string) (string, bool)) Config {
	if val, ok := lookup(EnvDeviceID); ok && val != "" {
		conf.DeviceID = val
	}
	if conf.DeviceID == "" {
		conf.DeviceID = MachineID()
	}
	if val, ok := lookup(EnvMQTTURL); ok {
		conf.MQTTURL = val
	}
	if val, ok := lookup(EnvSerial); ok {
		conf.SerialPort = val
	}
	if val, ok := lookup(EnvSerialBaud); ok {
		if baud, err := strconv.Atoi(val); err == nil {
			conf.SerialBaud = baud
		}
	}
	if val, ok := lookup(EnvWSAddr); ok {
		conf.WebsocketAddr = val
	}
	return conf
}

// MachineID retrieves the unique ID identifying the machine, or
// "gpiocmd" if the machine has none.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil || id == "" {
		return "gpiocmd"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

func bindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.DeviceID, "id", c.DeviceID, "Device ID")
	fs.StringVar(&c.Description, "desc", c.Description, "Device description")
	fs.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL")
	fs.StringVar(&c.SerialPort, "serial", c.SerialPort, "Serial port")
	fs.IntVar(&c.SerialBaud, "baud", c.SerialBaud, "Serial baud rate")
	fs.StringVar(&c.WebsocketAddr, "ws", c.WebsocketAddr, "Websocket listen address")
	fs.BoolVar(&c.Stdio, "stdio", c.Stdio, "Use stdin/stdout, EOF exits unless other transports are configured")
	fs.IntVar(&c.QueueCapacity, "queue", c.QueueCapacity, "Transport queue capacity in chunks")
	fs.IntVar(&c.ChunkSize, "chunk", c.ChunkSize, "Read chunk size of stream transports")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	bindFlags(flag.CommandLine, &defaultConfig)
	flag.StringVar(&configFile, "config", configFile, "YAML config file")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config from the defaults, the -config file and the
// command line flags.
func NewConfig() (*Config, error) {
	if configFile == "" {
		conf := defaultConfig
		return &conf, nil
	}
	return LoadConfig(configFile, flag.CommandLine)
}

// LoadConfig reads a YAML file over the environment defaults then
// re-applies the flags set in cmdline.
func LoadConfig(fn string, cmdline *flag.FlagSet) (*Config, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	conf := FromEnv(builtinConfig, os.LookupEnv)
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", fn, err)
	}
	fs := flag.NewFlagSet(fn, flag.ContinueOnError)
	bindFlags(fs, &conf)
	cmdline.Visit(func(f *flag.Flag) {
		if fs.Lookup(f.Name) != nil && err == nil {
			err = fs.Set(f.Name, f.Value.String())
		}
	})
	if err != nil {
		return nil, err
	}
	return &conf, nil
}
