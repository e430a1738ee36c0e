// Package websocket adapts the simulation protocol to a WebSocket
// transport. Each accepted connection gets a session with a read pump
// decoding client frames into protocol events and a write pump delivering
// outbound events, plus its own protocol loop driving a private simulation.
package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/floodcast/floodcast/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Start frames carry the whole
	// landscape, so this bounds the terrain size a client can submit.
	maxMessageSize = 1 << 20

	// Size of the outbound event buffer.
	sendBufferSize = 64
)

// Session represents one WebSocket client connection and the event channels
// bridging it to the protocol loop.
type Session struct {
	id   string
	conn *websocket.Conn

	// inbound carries decoded client events; closed by the read pump when
	// the transport closes, which terminates the protocol loop.
	inbound chan protocol.Event

	// outbound carries events to deliver to the client.
	outbound chan protocol.Event

	// done is closed when the protocol loop is gone, so the pumps never
	// block on a channel nobody drains anymore.
	done chan struct{}

	logger *slog.Logger
}

// NewSession creates a session over an established connection.
func NewSession(id string, conn *websocket.Conn, logger *slog.Logger) *Session {
	return &Session{
		id:       id,
		conn:     conn,
		inbound:  make(chan protocol.Event, sendBufferSize),
		outbound: make(chan protocol.Event, sendBufferSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// readPump pumps frames from the connection into the inbound channel.
// Undecodable and non-text frames are dropped and the connection continues;
// transport closure closes the inbound channel and ends the session.
func (s *Session) readPump() {
	defer close(s.inbound)

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Debug("websocket unexpected close",
					"session_id", s.id,
					"error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			s.logger.Debug("dropping non-text frame", "session_id", s.id)
			continue
		}

		event, err := protocol.Decode(data)
		if err != nil {
			s.logger.Debug("dropping undecodable frame",
				"session_id", s.id,
				"error", err)
			continue
		}

		select {
		case s.inbound <- event:
		case <-s.done:
			return
		}
	}
}

// writePump pumps events from the outbound channel onto the connection and
// keeps the peer alive with periodic pings. It exits when the outbound
// channel is closed or a write fails.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case event, ok := <-s.outbound:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := protocol.Encode(event)
			if err != nil {
				s.logger.Error("encoding outbound event failed",
					"session_id", s.id,
					"event", string(event.Kind),
					"error", err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close closes the underlying connection, which unblocks the read pump.
func (s *Session) Close() {
	s.conn.Close()
}

// shutdown marks the protocol loop as gone and closes the connection.
func (s *Session) shutdown() {
	close(s.done)
	s.conn.Close()
}
