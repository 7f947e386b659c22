// Package stream moves chunks between byte streams (stdio, UARTs) and a
// Commander.
package stream

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/gpiocmd/pkg/transport"
)

// DefaultChunkSize is the read buffer size used when ChunkSize is 0.
const DefaultChunkSize = 64

// Reader reads an io.Reader and hands every read to Sink as one chunk.
type Reader struct {
	Reader    io.Reader
	Sink      transport.Sink
	ChunkSize int
	Label     string
	// HoldOnEOF keeps Run blocked after EOF until ctx is done, so the
	// end of this stream doesn't stop the other transports of a Runner.
	HoldOnEOF bool

	dropped atomic.Uint64
}

// NewReader creates a Reader.
func NewReader(r io.Reader, sink transport.Sink) *Reader {
	return &Reader{Reader: r, Sink: sink, ChunkSize: DefaultChunkSize, Label: "stream"}
}

// WithLabel sets the name used in logs.
func (r *Reader) WithLabel(label string) *Reader {
	r.Label = label
	return r
}

// Name implements Named.
func (r *Reader) Name() string {
	return r.Label + ".reader"
}

// Dropped returns the number of chunks the sink refused.
func (r *Reader) Dropped() uint64 {
	return r.dropped.Load()
}

// Run implements Runnable. On cancel an io.Closer reader is closed and
// Run returns without waiting for a pending Read, which may never return
// for a terminal. It returns nil on EOF unless HoldOnEOF is set.
func (r *Reader) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.readLoop()
	}()
	select {
	case err := <-errCh:
		if err == nil && r.HoldOnEOF {
			<-ctx.Done()
			return ctx.Err()
		}
		return err
	case <-ctx.Done():
		if closer, ok := r.Reader.(io.Closer); ok {
			closer.Close()
		}
		return ctx.Err()
	}
}

func (r *Reader) readLoop() error {
	size := r.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	for {
		n, err := r.Reader.Read(buf)
		if n > 0 {
			if e := r.Sink.AppendData(buf[:n]); e != nil {
				r.dropped.Add(1)
				glog.V(1).Infof("%s: %d bytes dropped: %v", r.Label, n, e)
			}
		}
		if err == io.EOF {
			glog.V(2).Infof("%s: EOF", r.Label)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Writer is a Responder writing to an io.Writer.
type Writer struct {
	Writer io.Writer

	lock sync.Mutex
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{Writer: w}
}

// Respond implements gpiocmd.Responder.
func (w *Writer) Respond(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	_, err := w.Writer.Write(data)
	return err
}
