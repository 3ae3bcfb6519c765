package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"stonefall/server/knockback"
)

func (s *subscriber) writeMessage(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Routes builds the HTTP surface: health and diagnostics probes, the join
// endpoint, and the WebSocket session socket.
func (h *Hub) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		data, err := json.Marshal(h.DiagnosticsSnapshot())
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/join", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		data, err := json.Marshal(h.Join())
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("id")
		if playerID == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed for %s: %v", playerID, err)
			return
		}

		sub, snapshot, ok := h.Subscribe(playerID, conn)
		if !ok {
			message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
			conn.WriteMessage(websocket.CloseMessage, message)
			conn.Close()
			return
		}

		initial := stateMessage{
			Type:       "state",
			Tick:       h.tick.Load(),
			ServerTime: time.Now().UnixMilli(),
			Actors:     snapshot,
		}
		data, err := json.Marshal(initial)
		if err != nil || sub.writeMessage(data) != nil {
			h.Disconnect(playerID)
			return
		}

		h.readLoop(r.Context(), playerID, sub)
	})

	return mux
}

// readLoop consumes client messages until the connection drops. Every exit
// path disconnects the player so stale sprint buffers do not accumulate.
func (h *Hub) readLoop(ctx context.Context, playerID string, sub *subscriber) {
	defer h.Disconnect(playerID)

	for {
		_, payload, err := sub.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Printf("discarding malformed message from %s: %v", playerID, err)
			continue
		}

		switch msg.Type {
		case "move":
			pos := knockback.Vec3{X: msg.X, Y: msg.Y, Z: msg.Z}
			look := knockback.Vec3{X: msg.LookX, Y: msg.LookY, Z: msg.LookZ}
			if !h.UpdateMove(playerID, pos, look, msg.Sprinting) {
				log.Printf("move ignored for unknown player %s", playerID)
			}
		case "heartbeat":
			now := time.Now()
			rtt, ok := h.UpdateHeartbeat(playerID, now, msg.SentAt)
			if !ok {
				continue
			}
			ack := heartbeatAck{Type: "heartbeat", SentAt: msg.SentAt, RTTMillis: rtt.Milliseconds()}
			data, err := json.Marshal(ack)
			if err != nil {
				continue
			}
			if sub.writeMessage(data) != nil {
				return
			}
		case "strike":
			if msg.Target == "" {
				continue
			}
			h.Strike(ctx, playerID, msg.Target)
		case "profile":
			if !h.SetWorldProfile(msg.Profile) {
				log.Printf("rejecting unknown world profile %q from %s", msg.Profile, playerID)
			}
		default:
			log.Printf("unknown message type %q from %s", msg.Type, playerID)
		}
	}
}
