package gpiocmd

import (
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/gpiocmd/pkg/gpio"
)

// Command identifies one of the supported commands.
type Command int

// Commands.
const (
	CmdUp Command = iota
	CmdDown
	CmdToggle
	CmdGet
	CmdInit
	CmdDeinit

	commandCount
)

var commandNames = [commandCount]string{
	CmdUp:     "up",
	CmdDown:   "down",
	CmdToggle: "toggle",
	CmdGet:    "get",
	CmdInit:   "init",
	CmdDeinit: "deinit",
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, commandCount)
	for cmd, name := range commandNames {
		m[name] = Command(cmd)
	}
	return m
}()

// String implements fmt.Stringer.
func (c Command) String() string {
	if c < 0 || c >= commandCount {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return commandNames[c]
}

// Commands lists all commands.
func Commands() []Command {
	cmds := make([]Command, commandCount)
	for n := range cmds {
		cmds[n] = Command(n)
	}
	return cmds
}

// LookupCommand finds a command by its (lowercase) name.
func LookupCommand(name string) (Command, bool) {
	cmd, ok := commandsByName[name]
	return cmd, ok
}

const (
	// argument positions
	argReg  = 1
	argMode = 3
)

var initModes = map[string]gpio.Mode{
	"in":  gpio.ModeInput,
	"out": gpio.ModeOutputOD,
}

// Record describes one dispatched line.
type Record struct {
	Args     []string
	Command  string
	Spec     PinSpec
	Resolved bool
	// Reply is the response line without CRLF, empty if nothing was sent.
	Reply string
	Err   error
}

// Observer is notified after every dispatched line.
type Observer interface {
	CommandDone(Record)
}

// ObserveFunc is func form of Observer.
type ObserveFunc func(Record)

// CommandDone implements Observer.
func (f ObserveFunc) CommandDone(rec Record) {
	f(rec)
}

// dispatch runs one tokenized line against hal. Any fault while doing so
// is turned into ReplyParseException.
func dispatch(hal gpio.HAL, args Args, rec *Record) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("command %q fault: %v", rec.Command, r)
			rec.Reply, rec.Err = string(ReplyParseException), ReplyParseException
		}
	}()

	name, ok := args.At(0)
	if !ok {
		rec.Err = ReplyNoCommand
	} else if cmd, ok := commandsByName[string(name)]; !ok {
		rec.Err = ReplyInvalidCommand
	} else {
		rec.Command = cmd.String()
		rec.Err = execute(hal, cmd, args, rec)
	}
	if rec.Err == nil {
		return
	}
	var reply Reply
	if !errors.As(rec.Err, &reply) {
		glog.V(2).Infof("command %q parse error: %v", rec.Command, rec.Err)
		rec.Err = ReplyParseException
		reply = ReplyParseException
	}
	rec.Reply = string(reply)
}

func execute(hal gpio.HAL, cmd Command, args Args, rec *Record) (err error) {
	if rec.Spec, err = ResolvePin(args, argReg); err != nil {
		return err
	}
	rec.Resolved = true
	spec := rec.Spec

	switch cmd {
	case CmdUp:
		hal.Set(spec.Reg, spec.Mask)
	case CmdDown:
		hal.Reset(spec.Reg, spec.Mask)
	case CmdToggle:
		hal.Toggle(spec.Reg, spec.Mask)
	case CmdGet:
		rec.Reply = hal.Read(spec.Reg, spec.Mask).String()
	case CmdInit:
		tok, ok := args.At(argMode)
		if !ok {
			return ReplyModeRequired
		}
		mode, ok := initModes[string(tok)]
		if !ok {
			return ReplyInvalidMode
		}
		hal.Init(spec.Reg, gpio.InitConfig{
			Pins:  spec.Mask,
			Mode:  mode,
			Pull:  gpio.PullNone,
			Speed: gpio.SpeedMedium,
		})
	case CmdDeinit:
		hal.DeInit(spec.Reg, spec.Mask)
	}
	return nil
}
