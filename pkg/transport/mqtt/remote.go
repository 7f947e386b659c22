package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/gpiocmd/pkg/msgs"
)

// Timeouts used by Remote when not set.
const (
	DefaultDiscoverTimeout = 500 * time.Millisecond
	DefaultReplyTimeout    = 2 * time.Second
)

// ErrNoReply is returned by Conn.Send when the device didn't respond.
var ErrNoReply = errors.New("no reply from device")

// DeviceInfo is a device found by Discover.
type DeviceInfo struct {
	ID   string
	Meta msgs.Meta
}

// Remote is the client side talking to devices through the broker.
type Remote struct {
	Queue           *Queue
	DiscoverTimeout time.Duration
	ReplyTimeout    time.Duration
}

// NewRemote creates a Remote. Call Connect before use.
func NewRemote(brokerURL string) (*Remote, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Remote{
		Queue:           NewQueue(opts, topicPrefix),
		DiscoverTimeout: DefaultDiscoverTimeout,
		ReplyTimeout:    DefaultReplyTimeout,
	}, nil
}

// Connect connects to the broker.
func (r *Remote) Connect() error {
	token := r.Queue.Connect()
	token.Wait()
	return token.Error()
}

// Close implements io.Closer.
func (r *Remote) Close() error {
	return r.Queue.Close()
}

// Discover collects the devices with a retained meta.
func (r *Remote) Discover(ctx context.Context) ([]DeviceInfo, error) {
	resCh := make(chan DeviceInfo, 16)
	sub := r.Queue.Sub("+/meta", func(topic string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		info := DeviceInfo{ID: strings.TrimSuffix(topic, "/meta")}
		if err := json.Unmarshal(payload, &info.Meta); err != nil {
			glog.Warningf("bad meta from %s: %v", info.ID, err)
			return
		}
		select {
		case resCh <- info:
		case <-time.After(time.Second):
		}
	})
	defer sub.Close()

	dur := r.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	found := make(map[string]DeviceInfo)
	for {
		select {
		case info := <-resCh:
			found[info.ID] = info
		case <-timeout:
			res := make([]DeviceInfo, 0, len(found))
			for _, info := range found {
				res = append(res, info)
			}
			sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
			return res, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// WatchRecords subscribes to the CommandRecords of device id, or of all
// devices if id is "+".
func (r *Remote) WatchRecords(id string, fn func(*msgs.CommandRecord)) *Subscription {
	return r.Queue.Sub(DeviceTopics(id).Records, func(topic string, payload []byte) {
		rec, err := msgs.DecodeCommandRecord(payload)
		if err != nil {
			glog.Warningf("bad record on %s: %v", topic, err)
			return
		}
		fn(rec)
	})
}

// Open starts a conversation with device id.
func (r *Remote) Open(id string) *Conn {
	c := &Conn{
		Remote: r,
		Topics: DeviceTopics(id),
		outCh:  make(chan []byte, 16),
	}
	c.sub = r.Queue.Sub(c.Topics.Out, c.handleOut)
	c.sub.Token.Wait()
	return c
}

// Conn sends lines to one device and collects its responses.
type Conn struct {
	Remote *Remote
	Topics Topics

	sub   *Subscription
	outCh chan []byte
}

// Send sends line terminated by CR and returns the next response.
func (c *Conn) Send(ctx context.Context, line string) ([]byte, error) {
	for drained := false; !drained; {
		select {
		case <-c.outCh:
		default:
			drained = true
		}
	}
	token := c.Remote.Queue.Pub(c.Topics.In, []byte(line+"\r"))
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	dur := c.Remote.ReplyTimeout
	if dur == 0 {
		dur = DefaultReplyTimeout
	}
	select {
	case out := <-c.outCh:
		return out, nil
	case <-time.After(dur):
		return nil, ErrNoReply
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	return c.sub.Close()
}

func (c *Conn) handleOut(_ string, payload []byte) {
	select {
	case c.outCh <- payload:
	default:
		glog.V(1).Infof("%s: response dropped", c.Topics.Out)
	}
}
