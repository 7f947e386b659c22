package queue

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRingFIFO(t *testing.T) {
	r := NewRing(3)
	require.Equal(t, 3, r.Cap())
	for lap := 0; lap < 4; lap++ {
		require.True(t, r.Push([]byte{1}))
		require.True(t, r.Push([]byte{2}))
		require.True(t, r.Push([]byte{3}))
		require.False(t, r.Push([]byte{4}))
		require.Equal(t, 3, r.Len())
		for _, expect := range []byte{1, 2, 3} {
			data, ok := r.Pop()
			require.True(t, ok)
			require.Equal(t, []byte{expect}, data)
		}
		_, ok := r.Pop()
		require.False(t, ok)
		require.Equal(t, 0, r.Len())
	}
}

func TestQueueDefaults(t *testing.T) {
	q := New(0)
	require.Equal(t, DefaultCapacity, q.Cap())
	require.Panics(t, func() { NewRing(0) })
}

func TestQueueOverflowKeepsPending(t *testing.T) {
	q := New(2)
	require.True(t, q.Enqueue([]byte("up a\r")))
	require.True(t, q.Enqueue([]byte("down b\r")))
	require.False(t, q.Enqueue([]byte("toggle c\r")))
	require.False(t, q.Enqueue([]byte("x")))
	require.Equal(t, []byte("up a\r"), q.PopWait())
	require.True(t, q.Enqueue([]byte("get d\r")))
	require.Equal(t, []byte("down b\r"), q.PopWait())
	require.Equal(t, []byte("get d\r"), q.PopWait())
	_, ok := q.TryPop()
	require.False(t, ok)
}

func TestQueueCopiesChunk(t *testing.T) {
	q := New(4)
	buf := []byte("abc")
	require.True(t, q.Enqueue(buf))
	buf[0] = 'x'
	require.Equal(t, []byte("abc"), q.PopWait())

	require.True(t, q.Enqueue(nil))
	data, err := q.Pop(context.Background())
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestQueuePopWaitWakesUp(t *testing.T) {
	q := New(4)
	resultCh := make(chan []byte, 1)
	go func() {
		resultCh <- q.PopWait()
	}()
	time.Sleep(10 * time.Millisecond)
	require.True(t, q.Enqueue([]byte("hi")))
	select {
	case data := <-resultCh:
		require.Equal(t, []byte("hi"), data)
	case <-time.After(time.Second):
		t.Fatal("PopWait not woken up")
	}
}

func TestQueuePopCanceled(t *testing.T) {
	q := New(4)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Pop(ctx)
	require.Equal(t, context.DeadlineExceeded, err)
}

func TestQueueProducerOrder(t *testing.T) {
	const (
		producers = 8
		chunks    = 500
	)
	q := New(16)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for n := 0; n < chunks; n++ {
				var chunk [8]byte
				binary.LittleEndian.PutUint32(chunk[:4], uint32(p))
				binary.LittleEndian.PutUint32(chunk[4:], uint32(n))
				for !q.Enqueue(chunk[:]) {
					time.Sleep(time.Microsecond)
				}
			}
		}(p)
	}

	next := make([]uint32, producers)
	for i := 0; i < producers*chunks; i++ {
		data := q.PopWait()
		require.Len(t, data, 8)
		p := binary.LittleEndian.Uint32(data[:4])
		n := binary.LittleEndian.Uint32(data[4:])
		require.Equal(t, next[p], n, "producer %d out of order", p)
		next[p]++
	}
	wg.Wait()
	for p := range next {
		require.Equal(t, uint32(chunks), next[p])
	}
}
