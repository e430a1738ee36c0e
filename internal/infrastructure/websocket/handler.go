package websocket

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/floodcast/floodcast/internal/infrastructure/monitoring"
	"github.com/floodcast/floodcast/internal/protocol"
	"github.com/floodcast/floodcast/internal/simulation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows connections from any origin.
	// In production, configure this based on your CORS policy.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests and runs one protocol loop per connection.
type Handler struct {
	registry  *Registry
	observers *monitoring.Manager
	logger    *slog.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(registry *Registry, observers *monitoring.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		registry:  registry,
		observers: observers,
		logger:    logger,
	}
}

// ServeHTTP handles the WebSocket upgrade request and drives the connection
// until the client goes away or the server shuts down.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			"error", err,
			"remote_addr", r.RemoteAddr)
		return
	}

	sessionID := uuid.New().String()
	session := NewSession(sessionID, conn, h.logger)

	h.logger.Info("websocket client connected",
		"session_id", sessionID,
		"remote_addr", r.RemoteAddr)

	h.registry.register <- session
	defer func() {
		h.registry.unregister <- session
		session.shutdown()
		close(session.outbound)
		h.logger.Info("websocket client disconnected", "session_id", sessionID)
	}()

	go session.readPump()
	go session.writePump()

	// One simulation per connection, owned by its protocol loop. The
	// feedback channel carries the loop's self-scheduled ticks.
	feedback := make(chan protocol.Event, protocol.FeedbackChannelSize)
	p := protocol.New(simulation.New(),
		protocol.WithSessionID(sessionID),
		protocol.WithObservers(h.observers),
	)

	if err := p.Run(r.Context(), session.inbound, session.outbound, feedback, feedback); err != nil {
		h.logger.Debug("protocol loop ended",
			"session_id", sessionID,
			"error", err)
	}
}
