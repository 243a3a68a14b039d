package controllers

import (
	"fsd/internal/providers"
	"fsd/internal/services"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// PushController streams pushState, toast and badge messages to connected
// display surfaces over a websocket.
type PushController struct {
	logger      providers.Logger
	service     services.SyncServiceInterface
	broadcaster services.BroadcasterInterface
	upgrader    websocket.Upgrader
}

func NewPushController(logger providers.Logger, service services.SyncServiceInterface, broadcaster services.BroadcasterInterface) *PushController {
	return &PushController{
		logger:      logger,
		service:     service,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  4096,
			HandshakeTimeout: 5 * time.Second,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
	}
}

func (pc *PushController) Push(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	conn, err := pc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		pc.logger.Warnf(providers.TypeGet, "Push upgrade failed: %s", err)
		return
	}
	defer conn.Close()

	id, messages := pc.broadcaster.Subscribe()
	defer pc.broadcaster.Unsubscribe(id)

	closed := make(chan struct{})
	go pc.readLoop(conn, closed)

	// A new surface gets the current state right away instead of waiting for
	// the next refresh.
	if snap, err := pc.service.GetSnapshot(r.Context(), false, services.ReasonPopup); err != nil {
		pc.logger.Warnf(providers.TypeGet, "Initial state for %s unavailable: %s", id, err)
	} else if err := pc.write(conn, services.PushMessage{Type: services.MessagePushState, Snapshot: snap}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := pc.write(conn, msg); err != nil {
				pc.logger.Debugf(providers.TypeGet, "Push to %s failed: %s", id, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (pc *PushController) write(conn *websocket.Conn, msg services.PushMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		pc.logger.Errorf(providers.TypeGet, "Unable to encode %s message: %s", msg.Type, err)
		return nil
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop drains client frames so control messages are processed, and
// signals closed once the peer goes away.
func (pc *PushController) readLoop(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				pc.logger.Debugf(providers.TypeGet, "Push connection closed: %s", err)
			}
			return
		}
	}
}
