// Package sh provides the interactive console for GPIO command devices.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/gpiocmd/pkg/env"
	"github.com/robotalks/gpiocmd/pkg/gpiocmd"
	"github.com/robotalks/gpiocmd/pkg/transport/mqtt"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	Raw         bool
	Local       bool

	Shell  *ishell.Shell
	Config *env.Config
	Target Target

	remote *mqtt.Remote
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "

	sendTimeout = 3 * time.Second
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	rawOutput  bool
	localMode  bool

	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&LocalCmd,
		&DisconnectCmd,
		&SendCmd,
		&DriveCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&rawOutput, "raw", rawOutput, "Print raw responses including echo.")
	flag.BoolVar(&localMode, "local", localMode, "Use an in-process interpreter on a simulated bank.")

	for _, cmd := range gpiocmd.Commands() {
		commands = append(commands, newLineCmd(cmd))
	}
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Raw:         rawOutput,
		Local:       localMode,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a target.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Target == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Remote returns the MQTT client, connecting on first use.
func (s *Shell) Remote() (*mqtt.Remote, error) {
	if s.remote != nil {
		return s.remote, nil
	}
	if s.Config.MQTTURL == "" {
		return nil, fmt.Errorf("MQTT broker URL not specified")
	}
	remote, err := mqtt.NewRemote(s.Config.MQTTURL)
	if err != nil {
		return nil, err
	}
	if err := remote.Connect(); err != nil {
		return nil, err
	}
	s.remote = remote
	return remote, nil
}

// Connect connects device id over MQTT.
func (s *Shell) Connect(id string) error {
	remote, err := s.Remote()
	if err != nil {
		return err
	}
	s.use(&RemoteTarget{ID: id, Conn: remote.Open(id)})
	return nil
}

// UseLocal switches to an in-process interpreter.
func (s *Shell) UseLocal() {
	s.use(NewLocalTarget(s.Config.QueueCapacity))
}

func (s *Shell) use(t Target) {
	s.Disconnect()
	s.Target = t
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", t.Name()))
}

// Disconnect drops the current target.
func (s *Shell) Disconnect() {
	if s.Target != nil {
		s.Target.Close()
		s.Target = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// SendLine sends one command line to the target and prints the replies.
func (s *Shell) SendLine(c *ishell.Context, line string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	out, err := s.Target.Send(ctx, line)
	if err != nil {
		c.Err(err)
		return err
	}
	if s.Raw {
		c.Printf("%q\n", out)
		return nil
	}
	lines := ReplyLines(line, out)
	if s.OutputJSON {
		encoded, err := json.Marshal(struct {
			Line    string   `json:"line"`
			Replies []string `json:"replies"`
		}{Line: line, Replies: lines})
		if err != nil {
			c.Err(err)
			return err
		}
		c.Println(string(encoded))
		return nil
	}
	if len(lines) == 0 {
		c.Println("OK")
	}
	for _, l := range lines {
		if reply, ok := gpiocmd.ErrorReply(l); ok {
			c.Err(reply)
			err = reply
			continue
		}
		c.Println(l)
	}
	return err
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.Local {
		s.UseLocal()
	} else if s.Config.MQTTURL != "" && s.Config.DeviceID != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.DeviceID)
		}
		if err := s.Connect(s.Config.DeviceID); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.DeviceID, err)
		}
	}
	defer func() {
		s.Disconnect()
		if s.remote != nil {
			s.remote.Close()
		}
	}()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func newLineCmd(cmd gpiocmd.Command) *ishell.Cmd {
	help := "REG [PIN|mMASK]"
	if cmd == gpiocmd.CmdInit {
		help += " in|out"
	}
	return &ishell.Cmd{
		Name: cmd.String(),
		Help: help,
		Func: MustBeConnected(func(c *ishell.Context) {
			ShellFrom(c).SendLine(c, strings.Join(append([]string{cmd.String()}, c.Args...), " "))
		}),
	}
}

var (
	// DiscoverCmd lists devices registered on the broker.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			remote, err := s.Remote()
			if err != nil {
				c.Err(err)
				return
			}
			devices, err := remote.Discover(context.Background())
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if devices == nil {
					devices = []mqtt.DeviceInfo{}
				}
				out, err := json.Marshal(devices)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(devices) == 0 {
				c.Println("No devices found")
				return
			}
			for _, info := range devices {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var id string
			if len(c.Args) > 0 {
				id = c.Args[0]
			} else {
				info, err := s.SelectDevice()
				if err != nil {
					c.Err(err)
					return
				}
				id = info.ID
			}
			if err := s.Connect(id); err != nil {
				c.Err(err)
			}
		},
	}

	// LocalCmd switches to the in-process interpreter.
	LocalCmd = ishell.Cmd{
		Name: "local",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).UseLocal()
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// SendCmd sends a raw command line.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "LINE",
		Func: MustBeConnected(func(c *ishell.Context) {
			ShellFrom(c).SendLine(c, strings.Join(c.Args, " "))
		}),
	}

	// DriveCmd sets input levels on the simulated bank.
	DriveCmd = ishell.Cmd{
		Name: "drive",
		Help: "REG [PIN|mMASK] up|down (local only)",
		Func: MustBeConnected(func(c *ishell.Context) {
			local, ok := ShellFrom(c).Target.(*LocalTarget)
			if !ok {
				c.Err(fmt.Errorf("drive is only available in local mode"))
				return
			}
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("REG and level required"))
				return
			}
			n := len(c.Args) - 1
			if err := local.Drive(c.Args[:n], c.Args[n]); err != nil {
				c.Err(err)
			}
		}),
	}
)

// SelectDevice discovers devices and asks for a choice.
func (s *Shell) SelectDevice() (*mqtt.DeviceInfo, error) {
	remote, err := s.Remote()
	if err != nil {
		return nil, err
	}
	devices, err := remote.Discover(context.Background())
	if err != nil {
		return nil, err
	}
	switch {
	case len(devices) == 0:
		return nil, fmt.Errorf("no device discovered")
	case len(devices) == 1:
		return &devices[0], nil
	case !s.Interactive:
		return nil, fmt.Errorf("more than 1 devices discovered in non-interactive mode")
	}
	items := make([]string, len(devices))
	for n, info := range devices {
		items[n] = FormatInfo(info)
	}
	index := s.Shell.MultiChoice(items, "Which one to connect?")
	if index < 0 {
		return nil, fmt.Errorf("no device selected")
	}
	return &devices[index], nil
}

// FormatInfo prints DeviceInfo into friendly string for display.
func FormatInfo(info mqtt.DeviceInfo) string {
	if info.Meta.Description != "" {
		return info.ID + ": " + info.Meta.Description
	}
	return info.ID
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := env.NewConfig()
	if err != nil {
		log.Fatalln(err)
	}
	New(conf).Run(flag.Args()...)
}
