package serial

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestMode(t *testing.T) {
	mode := Config{Port: "/dev/ttyACM0"}.Mode()
	require.Equal(t, &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}, mode)
	require.Equal(t, 9600, Config{BaudRate: 9600}.Mode().BaudRate)
}

func TestOpenRequiresPort(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	_, err = NewTransport(Config{Port: "/dev/does-not-exist"}, nil)
	require.Error(t, err)
}
