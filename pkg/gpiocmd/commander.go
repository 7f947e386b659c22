// Package gpiocmd interprets a text command stream into GPIO operations.
//
// Bytes arrive in chunks from any number of producers (AppendData) and are
// consumed by a single processing loop (Process). Every chunk is echoed,
// edited into a line buffer (backspace deletes, every non-printable byte
// ends the line, letters are lowercased) and each completed line is
// tokenized and dispatched as one of six commands:
//
//	up <reg> [pin]
//	down <reg> [pin]
//	toggle <reg> [pin]
//	get <reg> [pin]             replies up, down or invalid
//	init <reg> [pin] <in|out>
//	deinit <reg> [pin]
//
// <reg> is a..e. [pin] is absent (all pins), a pin index, or a raw mask
// prefixed by "m" (e.g. m0x30). Numbers are decimal or 0x/0o/0b prefixed.
// Errors are reported as one fixed line (see Reply) and never stop the
// loop. All output of one chunk is flushed to the Responder at once.
package gpiocmd

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/gpiocmd/pkg/gpio"
	"github.com/robotalks/gpiocmd/pkg/queue"
)

const backspace = 0x08

// Commander owns the transport queue and the consumer side pipeline.
// AppendData is safe for concurrent use. Process, SetResponse and
// SetObserver must only be called from the goroutine running the loop,
// or before it starts.
type Commander struct {
	HAL gpio.HAL

	queue     *queue.Queue
	responder Responder
	observer  Observer

	line []byte
	args Args
	out  responseBuffer
}

// NewCommander creates a Commander driving hal with a queue of capacity
// chunks (queue.DefaultCapacity if capacity <= 0).
func NewCommander(hal gpio.HAL, capacity int) *Commander {
	return &Commander{
		HAL:   hal,
		queue: queue.New(capacity),
	}
}

// Name implements Named.
func (c *Commander) Name() string {
	return "commander"
}

// AppendData queues a chunk for processing. It never blocks and returns
// queue.ErrFull if the chunk was dropped.
func (c *Commander) AppendData(data []byte) error {
	if !c.queue.Enqueue(data) {
		return queue.ErrFull
	}
	return nil
}

// SetResponse binds the output sink, nil discards output.
func (c *Commander) SetResponse(r Responder) {
	c.responder = r
}

// SetObserver binds a receiver of per-line records, nil disables it.
func (c *Commander) SetObserver(o Observer) {
	c.observer = o
}

// Process waits for one chunk and runs it through the pipeline. The
// returned error comes from the Responder.
func (c *Commander) Process() error {
	return c.processChunk(c.queue.PopWait())
}

// ProcessContext is Process which stops waiting when ctx is done.
func (c *Commander) ProcessContext(ctx context.Context) error {
	data, err := c.queue.Pop(ctx)
	if err != nil {
		return err
	}
	return c.processChunk(data)
}

// Run implements Runnable and processes chunks until ctx is done.
func (c *Commander) Run(ctx context.Context) error {
	for {
		if err := c.ProcessContext(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Warningf("respond error: %v", err)
		}
	}
}

func (c *Commander) processChunk(data []byte) error {
	glog.V(2).Infof("chunk %q", data)
	c.out.write(data)
	for _, b := range data {
		switch {
		case b == backspace:
			if n := len(c.line); n > 0 {
				c.line = c.line[:n-1]
			}
			c.out.writeString(" \b")
		case isLineEnd(b):
			c.out.writeString(crlf)
			c.runLine()
			c.line = c.line[:0]
		default:
			c.line = append(c.line, toLower(b))
		}
	}
	return c.out.flush(c.responder)
}

func (c *Commander) runLine() {
	c.args = Tokenize(c.line, c.args[:0])
	var rec Record
	dispatch(c.HAL, c.args, &rec)
	if rec.Reply != "" {
		c.out.writeLine(rec.Reply)
	}
	if glog.V(2) {
		glog.Infof("line %q -> %q (%v)", c.line, rec.Reply, rec.Err)
	}
	if o := c.observer; o != nil {
		rec.Args = c.args.Strings()
		o.CommandDone(rec)
	}
	for i := range c.args {
		c.args[i] = nil
	}
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
