package gpiocmd

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/gpiocmd/pkg/gpio"
)

func TestTokenize(t *testing.T) {
	testCases := []struct {
		line   string
		expect []string
	}{
		{"", nil},
		{"    ", nil},
		{"up", []string{"up"}},
		{"up a 3", []string{"up", "a", "3"}},
		{"  init   b m0x3  out ", []string{"init", "b", "m0x3", "out"}},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			args := Tokenize([]byte(tc.line), nil)
			require.Len(t, args, len(tc.expect))
			if len(tc.expect) > 0 {
				require.Equal(t, tc.expect, args.Strings())
			}
		})
	}
}

func TestTokenizeAliasesLine(t *testing.T) {
	line := []byte("up a")
	args := Tokenize(line, nil)
	line[0] = 'x'
	require.Equal(t, "xp", string(args[0]))
	args[0] = append(args[0], 'z')
	require.Equal(t, "xp a", string(line))
}

func TestResolvePin(t *testing.T) {
	args := func(s string) Args { return Tokenize([]byte(s), nil) }

	spec, err := ResolvePin(args("up e"), 1)
	require.NoError(t, err)
	require.Equal(t, PinSpec{Reg: gpio.RegE, Mask: gpio.PinAll}, spec)

	spec, err = ResolvePin(args("up d 0"), 1)
	require.NoError(t, err)
	require.Equal(t, PinSpec{Reg: gpio.RegD, Mask: 1}, spec)

	spec, err = ResolvePin(args("x y b 010"), 2)
	require.NoError(t, err)
	require.Equal(t, PinSpec{Reg: gpio.RegB, Mask: gpio.Pin(8)}, spec)

	spec, err = ResolvePin(args("up a m0o17"), 1)
	require.NoError(t, err)
	require.Equal(t, gpio.PinMask(0xf), spec.Mask)

	_, err = ResolvePin(args("up a 15"), 1)
	require.NoError(t, err)

	_, err = ResolvePin(args("up a bad"), 1)
	_, isNumErr := err.(*strconv.NumError)
	require.True(t, isNumErr)

	for _, tok := range []string{"1_0", "m0x_f", "0b1_1"} {
		_, err = ResolvePin(args("up a "+tok), 1)
		var numErr *strconv.NumError
		require.ErrorAs(t, err, &numErr, tok)
		require.Equal(t, strconv.ErrSyntax, numErr.Err)
	}

	_, err = ResolvePin(args("up"), 1)
	require.Equal(t, ReplyNoRegister, err)
}

func TestLookupCommand(t *testing.T) {
	for cmd := CmdUp; cmd < commandCount; cmd++ {
		found, ok := LookupCommand(cmd.String())
		require.True(t, ok)
		require.Equal(t, cmd, found)
	}
	_, ok := LookupCommand("UP")
	require.False(t, ok)
	require.Equal(t, "Command(9)", Command(9).String())
}

func TestCommandsAndReplies(t *testing.T) {
	cmds := Commands()
	require.Len(t, cmds, 6)
	require.Equal(t, CmdUp, cmds[0])
	require.Equal(t, CmdDeinit, cmds[5])

	r, ok := ErrorReply("Invalid pin mask")
	require.True(t, ok)
	require.Equal(t, ReplyInvalidPinMask, r)
	_, ok = ErrorReply("up")
	require.False(t, ok)
}
