package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"ctarail/internal/hub"
	"ctarail/internal/store"
)

// WSHandler streams live train snapshots. A client receives the current
// state on connect and every subsequent poll's snapshot as it lands.
type WSHandler struct {
	hub    *hub.Hub
	trains *store.TrainStore
	logger *slog.Logger
}

func NewWSHandler(h *hub.Hub, trains *store.TrainStore, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: h, trains: trains, logger: logger}
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), 64)
	h.hub.Register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.sendCurrentState(client)

	go h.writeLoop(ctx, conn, client)
	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) sendCurrentState(client *hub.Client) {
	trains := h.trains.List("")
	if len(trains) == 0 {
		return
	}
	data, err := json.Marshal(hub.SnapshotMessage{Type: "snapshot", Trains: trains})
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			h.sendPong(client)
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) sendPong(client *hub.Client) {
	data, err := json.Marshal(struct {
		Type string `json:"type"`
	}{Type: "pong"})
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}
