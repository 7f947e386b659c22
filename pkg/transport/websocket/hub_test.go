package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/gpiocmd/pkg/gpio"
	"github.com/robotalks/gpiocmd/pkg/gpiocmd"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := websocket.Dial(url, "", server.URL)
	require.NoError(t, err)
	return conn
}

func waitClients(t *testing.T, hub *Hub, n int) {
	deadline := time.Now().Add(time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expect %d clients, got %d", n, hub.Clients())
		}
		time.Sleep(time.Millisecond)
	}
}

func receive(t *testing.T, conn *websocket.Conn) string {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var msg string
	require.NoError(t, websocket.Message.Receive(conn, &msg))
	return msg
}

func TestHubBroadcast(t *testing.T) {
	sim := gpio.NewSim()
	cmd := gpiocmd.NewCommander(sim, 0)
	hub := NewHub("", cmd)
	cmd.SetResponse(hub)
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cmd.Run(ctx)

	c1, c2 := dial(t, server), dial(t, server)
	defer c1.Close()
	defer c2.Close()
	waitClients(t, hub, 2)

	require.NoError(t, websocket.Message.Send(c1, []byte("toggle e 0\r")))
	require.Equal(t, "toggle e 0\r\r\n", receive(t, c1))
	require.Equal(t, "toggle e 0\r\r\n", receive(t, c2))

	require.NoError(t, websocket.Message.Send(c2, []byte("get e 0\r")))
	require.Equal(t, "get e 0\r\r\nup\r\n", receive(t, c1))
	require.Equal(t, "get e 0\r\r\nup\r\n", receive(t, c2))
	require.Equal(t, gpio.Pin(0), sim.Output(gpio.RegE))
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub("", gpiocmd.NewCommander(gpio.NewSim(), 0))
	server := httptest.NewServer(hub.Handler())
	defer server.Close()

	conn := dial(t, server)
	waitClients(t, hub, 1)
	require.NoError(t, hub.Respond(nil))
	conn.Close()
	waitClients(t, hub, 0)
	require.NoError(t, hub.Respond([]byte("up\r\n")))
	require.Equal(t, "websocket:", hub.Name())
}
