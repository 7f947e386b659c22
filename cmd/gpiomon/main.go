package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	fx "github.com/robotalks/gpiocmd/pkg/framework"
	"github.com/robotalks/gpiocmd/pkg/gpio"
	"github.com/robotalks/gpiocmd/pkg/msgs"
	"github.com/robotalks/gpiocmd/pkg/transport/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/"
	device  = "+"
)

func init() {
	if val := os.Getenv("GPIOCMD_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&device, "id", device, "Device ID, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	remote, err := mqtt.NewRemote(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := remote.Connect(); err != nil {
		log.Fatalln(err)
	}

	remote.Queue.Sub(device+"/meta", func(topic string, payload []byte) {
		if len(payload) == 0 {
			log.Printf("%s: gone", topic)
			return
		}
		log.Printf("%s: %s", topic, string(payload))
	})
	remote.WatchRecords(device, func(rec *msgs.CommandRecord) {
		ts := rec.Time().Format(time.StampMicro)
		if !rec.Resolved {
			log.Printf("%s [%s] %q -> %q", rec.DeviceID, ts, rec.Args, rec.Reply)
			return
		}
		log.Printf("%s [%s] %s %s mask=%#04x -> %q", rec.DeviceID, ts,
			rec.Command, gpio.Register(rec.Register), rec.Mask, rec.Reply)
	})
	runner := fx.NewRunner().HandleSignals().Go(fx.NamedRun("monitor", fx.RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return remote.Close()
	})))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
