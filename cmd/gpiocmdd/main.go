package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/gpiocmd/pkg/env"
	fx "github.com/robotalks/gpiocmd/pkg/framework"
	"github.com/robotalks/gpiocmd/pkg/gpio"
	"github.com/robotalks/gpiocmd/pkg/gpiocmd"
	"github.com/robotalks/gpiocmd/pkg/msgs"
	"github.com/robotalks/gpiocmd/pkg/transport/mqtt"
	"github.com/robotalks/gpiocmd/pkg/transport/serial"
	"github.com/robotalks/gpiocmd/pkg/transport/stream"
	"github.com/robotalks/gpiocmd/pkg/transport/websocket"
)

//go-build: CGO_ENABLED=0

var listPorts bool

func init() {
	env.SetupFlags()
	flag.BoolVar(&listPorts, "list-ports", listPorts, "List serial ports and exit.")
}

func meta(conf *env.Config) msgs.Meta {
	m := msgs.Meta{
		Description: conf.Description,
		Labels:      map[string]string{"hal": "sim"},
		Registers:   "a-e",
	}
	for _, cmd := range gpiocmd.Commands() {
		m.Commands = append(m.Commands, cmd.String())
	}
	return m
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if listPorts {
		ports, err := serial.Ports()
		if err != nil {
			glog.Exit(err)
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return
	}

	conf, err := env.NewConfig()
	if err != nil {
		glog.Exit(err)
	}

	cmd := gpiocmd.NewCommander(gpio.NewSim(), conf.QueueCapacity)
	var (
		producers  []fx.Runnable
		responders gpiocmd.Responders
		stdin      *stream.Reader
	)

	if conf.Stdio {
		stdin = stream.NewReader(os.Stdin, cmd).WithLabel("stdin")
		stdin.ChunkSize = conf.ChunkSize
		producers = append(producers, stdin)
		responders = append(responders, stream.NewWriter(os.Stdout))
	}

	if conf.SerialPort != "" {
		t, err := serial.NewTransport(serial.Config{Port: conf.SerialPort, BaudRate: conf.SerialBaud}, cmd)
		if err != nil {
			glog.Exit(err)
		}
		t.Reader.ChunkSize = conf.ChunkSize
		producers = append(producers, t.Reader)
		responders = append(responders, t.Writer)
	}

	if conf.WebsocketAddr != "" {
		hub := websocket.NewHub(conf.WebsocketAddr, cmd)
		producers = append(producers, hub)
		responders = append(responders, hub)
	}

	if conf.MQTTURL != "" {
		dev, err := mqtt.NewDevice(conf.MQTTURL, conf.DeviceID, meta(conf), cmd)
		if err != nil {
			glog.Exitf("create MQTT device error: %v", err)
		}
		producers = append(producers, dev)
		responders = append(responders, dev)
		cmd.SetObserver(dev)
	}

	if len(producers) == 0 {
		glog.Exit("no transport configured, use -stdio, -serial, -ws or -mqtt")
	}
	// stdin alone exits on EOF, with other transports it only stops feeding
	if stdin != nil && len(producers) > 1 {
		stdin.HoldOnEOF = true
	}
	cmd.SetResponse(responders)

	glog.Infof("gpiocmdd %s: %d transports, queue capacity %d", conf.DeviceID, len(producers), conf.QueueCapacity)
	runner := fx.NewRunner().HandleSignals().Go(cmd).Go(producers...)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
