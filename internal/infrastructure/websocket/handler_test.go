package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodcast/floodcast/internal/infrastructure/monitoring"
	"github.com/floodcast/floodcast/internal/protocol"
	"github.com/floodcast/floodcast/internal/simulation"
)

const readTimeout = 10 * time.Second

type serverContext struct {
	t        *testing.T
	registry *Registry
	server   *httptest.Server
}

func startServer(t *testing.T) *serverContext {
	t.Helper()

	registry := NewRegistry(testLogger())
	go registry.Run()

	handler := NewHandler(registry, monitoring.NewManager(), testLogger())
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &serverContext{t: t, registry: registry, server: server}
}

func (c *serverContext) dial() *websocket.Conn {
	c.t.Helper()

	url := "ws" + strings.TrimPrefix(c.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(c.t, err, "failed to connect")
	c.t.Cleanup(func() { conn.Close() })

	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, event protocol.Event) {
	t.Helper()
	data, err := protocol.Encode(event)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readProgress(t *testing.T, conn *websocket.Conn) *protocol.ProgressParams {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	event, err := protocol.Decode(data)
	require.NoError(t, err)
	require.Equal(t, protocol.KindProgress, event.Kind, "expected a progress event")
	require.NotNil(t, event.Progress)
	return event.Progress
}

func TestHandler_StartDrivenToCompletion(t *testing.T) {
	c := startServer(t)
	conn := c.dial()

	sendEvent(t, conn, protocol.NewStart([]uint32{1, 2}, 1.0))

	first := readProgress(t, conn)
	assert.True(t, first.Running)
	assert.InDelta(t, 0.0, first.Time, 1e-9)
	assert.InDeltaSlice(t, []float64{1.0, 2.0}, first.Levels, 1e-9)

	// Fast-forward to completion instead of sitting through the
	// real-time tick delays.
	sendEvent(t, conn, protocol.Event{Kind: protocol.KindForward})

	var final *protocol.ProgressParams
	for {
		progress := readProgress(t, conn)
		if !progress.Running {
			final = progress
			break
		}
	}

	assert.InDelta(t, 1.0, final.Time, 0.01)
	assert.InDeltaSlice(t, []float64{2.5, 2.5}, final.Levels, 0.01)
}

func TestHandler_RealTimeTicksHonorStepDelay(t *testing.T) {
	c := startServer(t)
	conn := c.dial()

	started := time.Now()
	sendEvent(t, conn, protocol.NewStart([]uint32{1, 2}, simulation.DeltaTime*2))

	var progressCount int
	for {
		progress := readProgress(t, conn)
		progressCount++
		if !progress.Running {
			assert.InDelta(t, simulation.DeltaTime*2, progress.Time, 1e-9)
			break
		}
	}

	// Initial snapshot plus one per tick.
	assert.Equal(t, 3, progressCount)

	// Both ticks were scheduled with the real-time delay.
	assert.GreaterOrEqual(t, time.Since(started), 2*protocol.StepDelay-50*time.Millisecond)
}

func TestHandler_DropsUndecodableFrames(t *testing.T) {
	c := startServer(t)
	conn := c.dial()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"reset"}`)))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))

	// The connection survives and still handles valid commands.
	sendEvent(t, conn, protocol.NewStart([]uint32{3}, 1.0))

	progress := readProgress(t, conn)
	assert.True(t, progress.Running)
	assert.InDeltaSlice(t, []float64{3.0}, progress.Levels, 1e-9)
}

func TestHandler_TracksSessionsInRegistry(t *testing.T) {
	c := startServer(t)
	conn := c.dial()

	require.Eventually(t, func() bool {
		return c.registry.Count() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return c.registry.Count() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHandler_CloseAllDisconnectsClients(t *testing.T) {
	c := startServer(t)
	conn := c.dial()

	require.Eventually(t, func() bool {
		return c.registry.Count() == 1
	}, time.Second, 10*time.Millisecond)

	c.registry.CloseAll()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	require.Eventually(t, func() bool {
		return c.registry.Count() == 0
	}, time.Second, 10*time.Millisecond)
}
