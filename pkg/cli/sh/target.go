package sh

import (
	"context"
	"fmt"
	"strings"

	"github.com/robotalks/gpiocmd/pkg/gpio"
	"github.com/robotalks/gpiocmd/pkg/gpiocmd"
	"github.com/robotalks/gpiocmd/pkg/transport/mqtt"
)

// Target is where the shell sends command lines.
type Target interface {
	Name() string
	// Send sends one line and returns the raw response.
	Send(ctx context.Context, line string) ([]byte, error)
	Close() error
}

// LocalTarget runs an in-process Commander on a simulated bank.
type LocalTarget struct {
	Sim       *gpio.Sim
	Commander *gpiocmd.Commander

	out []byte
}

// NewLocalTarget creates a LocalTarget.
func NewLocalTarget(capacity int) *LocalTarget {
	t := &LocalTarget{Sim: gpio.NewSim()}
	t.Commander = gpiocmd.NewCommander(t.Sim, capacity)
	t.Commander.SetResponse(gpiocmd.RespondFunc(func(data []byte) error {
		t.out = append(t.out, data...)
		return nil
	}))
	return t
}

// Name implements Target.
func (t *LocalTarget) Name() string {
	return "local"
}

// Send implements Target.
func (t *LocalTarget) Send(ctx context.Context, line string) ([]byte, error) {
	t.out = t.out[:0]
	if err := t.Commander.AppendData([]byte(line + "\r")); err != nil {
		return nil, err
	}
	if err := t.Commander.ProcessContext(ctx); err != nil {
		return nil, err
	}
	return append([]byte(nil), t.out...), nil
}

// Close implements Target.
func (t *LocalTarget) Close() error {
	return nil
}

// Drive sets the external level of input pins on the simulated bank.
// pinArgs is the register and optional pin as in commands.
func (t *LocalTarget) Drive(pinArgs []string, level string) error {
	line := strings.ToLower("drive " + strings.Join(pinArgs, " "))
	spec, err := gpiocmd.ResolvePin(gpiocmd.Tokenize([]byte(line), nil), 1)
	if err != nil {
		return err
	}
	switch level {
	case "up", "1", "high":
		t.Sim.Drive(spec.Reg, spec.Mask, true)
	case "down", "0", "low":
		t.Sim.Drive(spec.Reg, spec.Mask, false)
	default:
		return fmt.Errorf("invalid level %q", level)
	}
	return nil
}

// RemoteTarget talks to a device through MQTT.
type RemoteTarget struct {
	ID   string
	Conn *mqtt.Conn
}

// Name implements Target.
func (t *RemoteTarget) Name() string {
	return t.ID
}

// Send implements Target.
func (t *RemoteTarget) Send(ctx context.Context, line string) ([]byte, error) {
	return t.Conn.Send(ctx, line)
}

// Close implements Target.
func (t *RemoteTarget) Close() error {
	return t.Conn.Close()
}

// ReplyLines extracts the reply lines from the response to line, dropping
// the echo.
func ReplyLines(line string, out []byte) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimPrefix(string(out), line+"\r"), "\r\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
