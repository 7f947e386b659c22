package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/gpiocmd/pkg/gpiocmd"
	"github.com/robotalks/gpiocmd/pkg/msgs"
	"github.com/robotalks/gpiocmd/pkg/transport"
)

// DefaultPublishTimeout bounds the wait for a response publish.
const DefaultPublishTimeout = time.Second

// ErrPublishTimeout is returned by Respond when the broker doesn't
// acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// Topics are the topics of one device, without the queue prefix.
type Topics struct {
	In      string
	Out     string
	Records string
	Meta    string
}

// DeviceTopics returns the topics of device id.
func DeviceTopics(id string) Topics {
	return Topics{
		In:      id + "/in",
		Out:     id + "/out",
		Records: id + "/records",
		Meta:    id + "/meta",
	}
}

// Device exposes a Commander on MQTT. It is a producer (Run), a
// gpiocmd.Responder and a gpiocmd.Observer.
type Device struct {
	Queue   *Queue
	ID      string
	Topics  Topics
	Sink    transport.Sink
	Timeout time.Duration

	meta    []byte
	dropped atomic.Uint64
}

// NewDevice creates a Device connecting to brokerURL. The meta is
// published retained and cleared by the will when the device goes away.
func NewDevice(brokerURL, id string, meta msgs.Meta, sink transport.Sink) (*Device, error) {
	if id == "" {
		return nil, fmt.Errorf("device id must be specified")
	}
	encoded, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	topics := DeviceTopics(id)
	opts.SetBinaryWill(topicPrefix+topics.Meta, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("gpiocmd:" + id)
	}
	d := newDevice(NewQueue(opts, topicPrefix), id, encoded, sink)
	return d, nil
}

func newDevice(q *Queue, id string, meta []byte, sink transport.Sink) *Device {
	d := &Device{
		Queue:   q,
		ID:      id,
		Topics:  DeviceTopics(id),
		Sink:    sink,
		Timeout: DefaultPublishTimeout,
		meta:    meta,
	}
	q.OnConnect = func(*Queue) { d.publishMeta() }
	return d
}

// Name implements Named.
func (d *Device) Name() string {
	return "mqtt:" + d.ID
}

// Dropped returns the number of chunks the sink refused.
func (d *Device) Dropped() uint64 {
	return d.dropped.Load()
}

// Run implements Runnable.
func (d *Device) Run(ctx context.Context) error {
	token := d.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	sub := d.Queue.Sub(d.Topics.In, d.handleIn)
	<-ctx.Done()
	sub.Close()
	d.Queue.PubWith(d.Topics.Meta, nil, 1, true).WaitTimeout(d.Timeout)
	d.Queue.Close()
	return nil
}

// Respond implements gpiocmd.Responder.
func (d *Device) Respond(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	payload := make([]byte, len(data))
	copy(payload, data)
	token := d.Queue.Pub(d.Topics.Out, payload)
	if !token.WaitTimeout(d.Timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// CommandDone implements gpiocmd.Observer.
func (d *Device) CommandDone(rec gpiocmd.Record) {
	encoded, err := msgs.NewCommandRecord(d.ID, rec, time.Now()).Encode()
	if err != nil {
		glog.Errorf("encode record error: %v", err)
		return
	}
	d.Queue.Pub(d.Topics.Records, encoded)
}

func (d *Device) handleIn(_ string, payload []byte) {
	if err := d.Sink.AppendData(payload); err != nil {
		d.dropped.Add(1)
		glog.V(1).Infof("%s: %d bytes dropped: %v", d.Name(), len(payload), err)
	}
}

func (d *Device) publishMeta() {
	d.Queue.PubWith(d.Topics.Meta, d.meta, 1, true)
}
