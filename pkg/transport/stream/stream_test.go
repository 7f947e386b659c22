package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/gpiocmd/pkg/gpio"
	"github.com/robotalks/gpiocmd/pkg/gpiocmd"
	"github.com/robotalks/gpiocmd/pkg/queue"
)

type chunkSink struct {
	lock   sync.Mutex
	chunks []string
	full   bool
}

func (s *chunkSink) AppendData(data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.full {
		return queue.ErrFull
	}
	s.chunks = append(s.chunks, string(data))
	return nil
}

func TestReaderChunks(t *testing.T) {
	sink := &chunkSink{}
	r := NewReader(strings.NewReader("up a 1\rget a 1\r"), sink)
	r.ChunkSize = 4
	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, "up a 1\rget a 1\r", strings.Join(sink.chunks, ""))
	for _, chunk := range sink.chunks {
		require.LessOrEqual(t, len(chunk), 4)
	}
	require.Equal(t, "stream.reader", r.Name())
}

func TestReaderHoldOnEOF(t *testing.T) {
	sink := &chunkSink{}
	r := NewReader(strings.NewReader("up a\r"), sink)
	r.HoldOnEOF = true
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(ctx)
	}()
	select {
	case err := <-errCh:
		t.Fatalf("reader returned on EOF: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("reader not stopped")
	}
	sink.lock.Lock()
	defer sink.lock.Unlock()
	require.Equal(t, []string{"up a\r"}, sink.chunks)
}

func TestReaderCountsDrops(t *testing.T) {
	sink := &chunkSink{full: true}
	r := NewReader(strings.NewReader("abcdef"), sink)
	r.ChunkSize = 2
	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, uint64(3), r.Dropped())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("line broken")
}

func TestReaderError(t *testing.T) {
	r := NewReader(failingReader{}, &chunkSink{})
	require.EqualError(t, r.Run(context.Background()), "line broken")
}

func TestReaderCancelClosesPipe(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewReader(pr, &chunkSink{}).WithLabel("pipe")
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(ctx)
	}()
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("reader not stopped")
	}
}

func TestWriterSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Respond(nil))
	require.NoError(t, w.Respond([]byte("ok\r\n")))
	require.Equal(t, "ok\r\n", buf.String())
}

func TestStreamToCommander(t *testing.T) {
	sim := gpio.NewSim()
	cmd := gpiocmd.NewCommander(sim, 0)
	var out bytes.Buffer
	cmd.SetResponse(NewWriter(&out))

	r := NewReader(strings.NewReader("init b 3 out\rup b 3\rget b 3\r"), cmd)
	r.ChunkSize = 1024
	require.NoError(t, r.Run(context.Background()))
	require.NoError(t, cmd.Process())
	require.Equal(t, "init b 3 out\rup b 3\rget b 3\r\r\n\r\n\r\nup\r\n", out.String())
	require.Equal(t, gpio.Pin(3), sim.Output(gpio.RegB))
}
