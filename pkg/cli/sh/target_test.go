package sh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/gpiocmd/pkg/gpio"
	"github.com/robotalks/gpiocmd/pkg/gpiocmd"
	"github.com/robotalks/gpiocmd/pkg/transport/mqtt"
)

func TestReplyLines(t *testing.T) {
	cases := []struct {
		line  string
		out   string
		lines []string
	}{
		{"up a", "up a\r\r\n", nil},
		{"get a 1", "get a 1\r\r\ndown\r\n", []string{"down"}},
		{"up q", "up q\r\r\nInvalid register name\r\n", []string{"Invalid register name"}},
		{"x", "", nil},
	}
	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			require.Equal(t, c.lines, ReplyLines(c.line, []byte(c.out)))
		})
	}
}

func TestLocalTarget(t *testing.T) {
	target := NewLocalTarget(0)
	ctx := context.Background()
	require.Equal(t, "local", target.Name())

	out, err := target.Send(ctx, "init a 4 in")
	require.NoError(t, err)
	require.Empty(t, ReplyLines("init a 4 in", out))

	require.NoError(t, target.Drive([]string{"A", "4"}, "up"))
	out, err = target.Send(ctx, "get a 4")
	require.NoError(t, err)
	require.Equal(t, []string{"up"}, ReplyLines("get a 4", out))

	require.NoError(t, target.Drive([]string{"a", "4"}, "low"))
	out, err = target.Send(ctx, "get a 4")
	require.NoError(t, err)
	require.Equal(t, "get a 4\r\r\ndown\r\n", string(out))

	require.Equal(t, gpiocmd.ReplyInvalidRegisterName, target.Drive([]string{"z", "4"}, "up"))
	require.Error(t, target.Drive([]string{"a"}, "sideways"))
	require.NoError(t, target.Close())
}

func TestLocalTargetCanceled(t *testing.T) {
	target := NewLocalTarget(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := target.Send(ctx, "up a")
	require.NoError(t, err)

	require.NoError(t, target.Commander.AppendData([]byte("x")))
	_, err = target.Send(ctx, "up a")
	require.Error(t, err)
	require.Equal(t, []gpio.Call{{Op: gpio.OpSet, Reg: gpio.RegA, Mask: gpio.PinAll}}, target.Sim.Calls())
}

func TestFormatInfo(t *testing.T) {
	info := mqtt.DeviceInfo{ID: "bench"}
	require.Equal(t, "bench", FormatInfo(info))
	info.Meta.Description = "test bench"
	require.Equal(t, "bench: test bench", FormatInfo(info))
}
