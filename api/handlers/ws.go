package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/busanbank/live-support-api/coordination"
)

// AssignedEvent is pushed to a consultant's socket the moment the scheduler
// hands them a session
type AssignedEvent struct {
	Type         string `json:"type"`
	SessionID    string `json:"sessionId"`
	ConsultantID string `json:"consultantId"`
	MediaChannel string `json:"mediaChannel"`
	AssignedAt   int64  `json:"assignedAt"`
}

// AgentRegistry tracks the live websocket connection per consultant. One
// connection per consultant; a reconnect replaces the old socket.
type AgentRegistry struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewAgentRegistry creates an empty registry
func NewAgentRegistry() *AgentRegistry {
	return &AgentRegistry{conns: map[string]*websocket.Conn{}}
}

// Put registers a consultant's socket, closing any previous one
func (reg *AgentRegistry) Put(consultantID string, conn *websocket.Conn) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if old, ok := reg.conns[consultantID]; ok {
		_ = old.Close()
	}
	reg.conns[consultantID] = conn
}

// Remove unregisters a consultant's socket if it is still the current one
func (reg *AgentRegistry) Remove(consultantID string, conn *websocket.Conn) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if cur, ok := reg.conns[consultantID]; ok && cur == conn {
		delete(reg.conns, consultantID)
	}
}

// NotifyAssigned pushes an assignment event to the consultant's socket. A
// consultant without a live socket is not an error; the session is already
// ASSIGNED and the watchdog recovers it if nobody joins.
func (reg *AgentRegistry) NotifyAssigned(sessionID, consultantID, mediaChannel string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	conn, ok := reg.conns[consultantID]
	if !ok {
		zap.S().Debugw("no live agent socket, relying on watchdog",
			"sessionId", sessionID,
			"consultantId", consultantID,
		)
		return nil
	}
	return conn.WriteJSON(AssignedEvent{
		Type:         "ASSIGNED",
		SessionID:    sessionID,
		ConsultantID: consultantID,
		MediaChannel: mediaChannel,
		AssignedAt:   time.Now().UnixMilli(),
	})
}

// AgentSocket exposes the consultant-side websocket endpoint
type AgentSocket struct {
	Registry *AgentRegistry
	Pool     coordination.ConsultantPool
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AgentSocketHandler upgrades the connection and parks it in the registry
// until the consultant disconnects. A dropped socket marks the consultant
// offline so the allocator stops considering them.
func (a AgentSocket) AgentSocketHandler(w http.ResponseWriter, r *http.Request) {
	consultantID := r.URL.Query().Get("consultantId")
	if consultantID == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "consultantId is required"}`))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("failed to upgrade agent socket", "error", err, "consultantId", consultantID)
		return
	}

	a.Registry.Put(consultantID, conn)
	zap.S().Infow("agent socket connected", "consultantId", consultantID)

	defer func() {
		a.Registry.Remove(consultantID, conn)
		_ = conn.Close()
		if err := a.Pool.MarkOffline(context.Background(), consultantID); err != nil {
			zap.S().Warnw("failed to mark consultant offline on disconnect",
				"error", err, "consultantId", consultantID)
		}
		zap.S().Infow("agent socket disconnected", "consultantId", consultantID)
	}()

	// inbound frames are only connection keepalive, drain until close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
