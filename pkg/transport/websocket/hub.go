// Package websocket exposes a Commander to websocket clients. Every
// received message is one chunk, and every response is broadcast to all
// connected clients.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/gpiocmd/pkg/framework"
	"github.com/robotalks/gpiocmd/pkg/transport"
)

// Path is where the Hub is served by Run.
const Path = "/gpio"

// Hub tracks the connected clients.
type Hub struct {
	Addr string
	Sink transport.Sink

	lock    sync.Mutex
	conns   map[*websocket.Conn]struct{}
	dropped atomic.Uint64
}

// NewHub creates a Hub listening on addr once Run.
func NewHub(addr string, sink transport.Sink) *Hub {
	return &Hub{Addr: addr, Sink: sink, conns: make(map[*websocket.Conn]struct{})}
}

// Name implements Named.
func (h *Hub) Name() string {
	return "websocket:" + h.Addr
}

// Dropped returns the number of chunks the sink refused.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Handler returns the http.Handler accepting clients. Origin is not
// checked.
func (h *Hub) Handler() http.Handler {
	return websocket.Server{Handler: h.serveConn}
}

// Run implements Runnable.
func (h *Hub) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(Path, h.Handler())
	server := &http.Server{Addr: h.Addr, Handler: mux}
	glog.Infof("websocket listening on %s%s", h.Addr, Path)
	err := fx.RunWithContextCancel(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		h.closeAll()
	}, server.ListenAndServe)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Respond implements gpiocmd.Responder.
func (h *Hub) Respond(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var errs fx.AggregatedError
	h.lock.Lock()
	defer h.lock.Unlock()
	for conn := range h.conns {
		if err := websocket.Message.Send(conn, data); err != nil {
			glog.Warningf("websocket %s send error: %v", conn.Request().RemoteAddr, err)
			errs.Add(err)
			delete(h.conns, conn)
			conn.Close()
		}
	}
	return errs.Aggregate()
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.conns)
}

func (h *Hub) serveConn(conn *websocket.Conn) {
	remote := conn.Request().RemoteAddr
	glog.Infof("websocket %s connected", remote)
	h.lock.Lock()
	h.conns[conn] = struct{}{}
	h.lock.Unlock()
	defer func() {
		h.lock.Lock()
		delete(h.conns, conn)
		h.lock.Unlock()
		conn.Close()
		glog.Infof("websocket %s disconnected", remote)
	}()
	for {
		var data []byte
		if err := websocket.Message.Receive(conn, &data); err != nil {
			glog.V(2).Infof("websocket %s receive: %v", remote, err)
			return
		}
		if err := h.Sink.AppendData(data); err != nil {
			h.dropped.Add(1)
			glog.V(1).Infof("websocket %s: %d bytes dropped: %v", remote, len(data), err)
		}
	}
}

func (h *Hub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for conn := range h.conns {
		conn.Close()
	}
}
