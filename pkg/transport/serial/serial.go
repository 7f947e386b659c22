// Package serial opens UARTs carrying the command stream.
package serial

import (
	"fmt"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/gpiocmd/pkg/transport"
	"github.com/robotalks/gpiocmd/pkg/transport/stream"
)

// DefaultBaudRate is used when Config.BaudRate is 0.
const DefaultBaudRate = 115200

// Config selects a port and its line settings (always 8N1).
type Config struct {
	Port     string
	BaudRate int
}

// Mode returns the serial.Mode for the config.
func (c Config) Mode() *serial.Mode {
	baud := c.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the port.
func Open(conf Config) (serial.Port, error) {
	if conf.Port == "" {
		return nil, fmt.Errorf("serial port not specified")
	}
	mode := conf.Mode()
	port, err := serial.Open(conf.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Port, err)
	}
	glog.Infof("serial %s opened at %d baud", conf.Port, mode.BaudRate)
	return port, nil
}

// Transport is an opened port wired as producer and responder.
type Transport struct {
	Port   serial.Port
	Reader *stream.Reader
	Writer *stream.Writer
}

// NewTransport opens the port and wires it to sink.
func NewTransport(conf Config, sink transport.Sink) (*Transport, error) {
	port, err := Open(conf)
	if err != nil {
		return nil, err
	}
	return &Transport{
		Port:   port,
		Reader: stream.NewReader(port, sink).WithLabel("serial:" + conf.Port),
		Writer: stream.NewWriter(port),
	}, nil
}

// Ports lists the serial ports found on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
