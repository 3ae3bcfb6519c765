package server

import (
	"encoding/json"
	"time"
)

type joinResponse struct {
	ID       string   `json:"id"`
	TickRate int      `json:"tickRate"`
	Profiles []string `json:"profiles"`
}

type actorSnapshot struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	VelX      float64 `json:"velX"`
	VelY      float64 `json:"velY"`
	VelZ      float64 `json:"velZ"`
	State     string  `json:"state"`
	Sprinting bool    `json:"sprinting,omitempty"`
}

type stateMessage struct {
	Type       string          `json:"type"`
	Tick       uint64          `json:"t"`
	ServerTime int64           `json:"serverTime"`
	Actors     []actorSnapshot `json:"actors"`
}

// clientMessage is the envelope for everything a subscriber sends over the
// tuning socket. Type selects which of the optional fields are read.
type clientMessage struct {
	Type string `json:"type"`

	// move
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	LookX     float64 `json:"lookX"`
	LookY     float64 `json:"lookY"`
	LookZ     float64 `json:"lookZ"`
	Sprinting bool    `json:"sprinting"`

	// heartbeat
	SentAt int64 `json:"sentAt"`

	// strike
	Target string `json:"target"`

	// profile
	Profile string `json:"profile"`
}

type heartbeatAck struct {
	Type      string `json:"type"`
	SentAt    int64  `json:"sentAt"`
	RTTMillis int64  `json:"rtt"`
}

type diagnosticsPlayer struct {
	ID            string `json:"id"`
	LastHeartbeat int64  `json:"lastHeartbeat"`
	RTTMillis     int64  `json:"rttMillis"`
	Sprinting     bool   `json:"sprinting"`
}

type diagnosticsPayload struct {
	Tick         uint64              `json:"t"`
	WorldProfile string              `json:"worldProfile"`
	Players      []diagnosticsPlayer `json:"players"`
	Tracked      int                 `json:"trackedSprintBuffers"`
}

// broadcastState fans the tick snapshot out to every subscriber. Writes are
// serialized per connection; a failed write only drops that subscriber's
// message, the tick loop never blocks on it.
func (h *Hub) broadcastState(actors []actorSnapshot) {
	msg := stateMessage{
		Type:       "state",
		Tick:       h.tick.Load(),
		ServerTime: time.Now().UnixMilli(),
		Actors:     actors,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.writeMessage(payload)
	}
}
