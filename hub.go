package server

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"stonefall/server/catalog"
	"stonefall/server/internal/combat"
	"stonefall/server/internal/state"
	"stonefall/server/knockback"
	"stonefall/server/layered"
	"stonefall/server/logging"
)

// Hub owns all live actors, tuning subscribers, and the knockback pipeline.
// It is the combat-subsystem root: the applicator, the sprint tracker, and
// the profile catalog are constructed here and threaded through calls rather
// than reached through globals.
type Hub struct {
	mu          sync.Mutex
	players     map[string]*playerState
	subscribers map[string]*subscriber
	nextID      atomic.Uint64
	tick        atomic.Uint64

	settings   Settings
	profiles   *catalog.Resolver
	tracker    *knockback.SprintWindowTracker
	applicator *knockback.Applicator
	pub        logging.Publisher

	worldProfile string
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type playerState struct {
	state.Actor
	lastHeartbeat time.Time
	cooldowns     map[string]time.Time
}

// NewHub wires the combat subsystem together. The profile named by the
// settings' world section becomes the world layer; the catalog's default
// preset is the server fallback handed to the applicator.
func NewHub(settings Settings, profiles *catalog.Resolver, pub logging.Publisher) *Hub {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	tracker := knockback.NewSprintWindowTracker()
	fallback := knockback.Default()
	if entry, ok := profiles.Resolve(catalog.PresetDefault); ok {
		fallback = entry.Config
	}
	return &Hub{
		players:      make(map[string]*playerState),
		subscribers:  make(map[string]*subscriber),
		settings:     settings,
		profiles:     profiles,
		tracker:      tracker,
		applicator:   knockback.NewApplicator(fallback, tracker, settings.TickDuration(), settings.SprintWindowDouble, pub),
		pub:          pub,
		worldProfile: settings.World.Profile,
	}
}

// Join registers a new player and returns its assigned ID.
func (h *Hub) Join() joinResponse {
	id := h.nextID.Add(1)
	playerID := fmt.Sprintf("player-%d", id)
	now := time.Now()

	player := &playerState{
		Actor: state.Actor{
			ID:       playerID,
			Kind:     "player",
			Physical: knockback.StateGrounded,
			Look:     knockback.Vec3{Z: 1},
		},
		lastHeartbeat: now,
		cooldowns:     make(map[string]time.Time),
	}

	h.mu.Lock()
	h.players[playerID] = player
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	go h.broadcastState(snapshot)

	return joinResponse{ID: playerID, TickRate: h.settings.TickRate, Profiles: h.profileIDs()}
}

// Subscribe associates a WebSocket connection with an existing player.
func (h *Hub) Subscribe(playerID string, conn *websocket.Conn) (*subscriber, []actorSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.players[playerID]
	if !ok {
		return nil, nil, false
	}
	player.lastHeartbeat = time.Now()

	if existing, ok := h.subscribers[playerID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	h.subscribers[playerID] = sub
	return sub, h.snapshotLocked(), true
}

// Disconnect removes a player, closes its subscriber connection, and drops
// its sprint buffer.
func (h *Hub) Disconnect(playerID string) []actorSnapshot {
	h.mu.Lock()
	sub, subOK := h.subscribers[playerID]
	if subOK {
		delete(h.subscribers, playerID)
	}
	_, playerOK := h.players[playerID]
	if playerOK {
		delete(h.players, playerID)
	}
	var snapshot []actorSnapshot
	if playerOK {
		snapshot = h.snapshotLocked()
	}
	h.mu.Unlock()

	h.tracker.Forget(playerID)
	if subOK {
		sub.conn.Close()
	}
	if !playerOK {
		return nil
	}
	return snapshot
}

// UpdateMove records the latest position, facing, and sprint state reported
// for a player. Sprint flags are sampled into the tracker once per tick, not
// here, so packet bursts cannot inflate the window.
func (h *Hub) UpdateMove(playerID string, pos, look knockback.Vec3, sprinting bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.players[playerID]
	if !ok {
		return false
	}
	player.Position = pos
	if look.HorizontalLength() > 0 {
		player.Look = look
	}
	player.Sprinting = sprinting
	return true
}

// UpdateHeartbeat records the most recent heartbeat time and RTT for a
// player. The RTT feeds the latency-derived sprint window.
func (h *Hub) UpdateHeartbeat(playerID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.players[playerID]
	if !ok {
		return 0, false
	}
	player.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			player.LastRTT = rtt
		}
	}
	return player.LastRTT, true
}

// Strike processes one melee hit from attacker to victim. Hit validation
// here is the trusted reach check; the damage outcome gates knockback. The
// whole resolution and application runs synchronously under the hub lock on
// whichever goroutine delivered the strike.
func (h *Hub) Strike(ctx context.Context, attackerID, victimID string) bool {
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()

	attacker, ok := h.players[attackerID]
	if !ok {
		return false
	}
	victim, ok := h.players[victimID]
	if !ok || victimID == attackerID {
		return false
	}
	if !combat.ReadyCooldown(&attacker.cooldowns, "strike", strikeCooldown, now) {
		return false
	}

	distance := victim.Position.Sub(attacker.Position).Length()
	report := combat.HitReport{
		AttackerID: attackerID,
		VictimID:   victimID,
		ItemType:   heldItemType(attacker),
		Distance:   distance,
		Validated:  distance <= meleeReach,
	}
	outcome := combat.DamageOutcome{
		Applied:     report.Validated,
		ImpactLevel: impactLevel(attacker.HeldItem),
	}
	if !combat.ShouldKnockback(report, outcome) {
		return false
	}

	hit := knockback.Hit{
		Tick: h.tick.Load(),
		Attack: knockback.Attack{
			AttackerID:     attackerID,
			VictimID:       victimID,
			AttackerPos:    attacker.Position,
			VictimPos:      victim.Position,
			VictimLook:     victim.Look,
			VictimVelocity: victim.Velocity(),
			VictimState:    victim.Physical,
			Airborne:       victim.Airborne(),
			Distance:       distance,
			Source:         knockback.SourceMelee,
			ImpactLevel:    outcome.ImpactLevel,
		},
		AttackerRTT: attacker.LastRTT,
		Victim:      &victim.Actor,
		Layers: []knockback.OverrideProvider{
			state.ItemLayer(attacker.HeldItem),
			state.ActorLayer(&attacker.Actor),
			nil, // attacking player layer; coincides with the entity for direct hits
			nil, // victim layer; only consulted for environmental events
			h.worldLayerLocked(),
		},
	}
	return h.applicator.Apply(ctx, hit)
}

// EnvironmentalStrike applies knockback from a non-entity source such as an
// explosion. With no attacker entity the victim anchors resolution: its own
// override layer is consulted where the attacker layers would be.
func (h *Hub) EnvironmentalStrike(ctx context.Context, victimID string, sourcePos knockback.Vec3) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	victim, ok := h.players[victimID]
	if !ok {
		return false
	}
	distance := victim.Position.Sub(sourcePos).Length()

	hit := knockback.Hit{
		Tick: h.tick.Load(),
		Attack: knockback.Attack{
			VictimID:       victimID,
			AttackerPos:    sourcePos,
			VictimPos:      victim.Position,
			VictimLook:     victim.Look,
			VictimVelocity: victim.Velocity(),
			VictimState:    victim.Physical,
			Airborne:       victim.Airborne(),
			Distance:       distance,
			Source:         knockback.SourceMelee,
		},
		Victim: &victim.Actor,
		Layers: []knockback.OverrideProvider{
			state.ActorLayer(&victim.Actor),
			h.worldLayerLocked(),
		},
	}
	return h.applicator.Apply(ctx, hit)
}

// ResolveProfile exposes the effective profile for an actor's layer stack,
// reused by the tuning console and the projectile pipeline.
func (h *Hub) ResolveProfile(actorID string) (knockback.Config, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	player, ok := h.players[actorID]
	if !ok {
		return knockback.Config{}, false
	}
	cfg := h.applicator.Resolve(
		state.ItemLayer(player.HeldItem),
		state.ActorLayer(&player.Actor),
		h.worldLayerLocked(),
	)
	return cfg, true
}

// SetWorldProfile switches the world layer to another catalog profile. Used
// by the tuning console; unknown IDs are rejected.
func (h *Hub) SetWorldProfile(id string) bool {
	if _, ok := h.profiles.Resolve(id); !ok {
		return false
	}
	h.mu.Lock()
	h.worldProfile = id
	h.mu.Unlock()
	return true
}

// worldLayerLocked builds the world/zone override layer: the configured
// catalog profile as custom plus the settings' stacking vectors. Callers hold
// the hub lock.
func (h *Hub) worldLayerLocked() knockback.OverrideProvider {
	profile := h.worldProfile
	modify := h.settings.World.Modify
	multiplier := h.settings.World.Multiplier
	resolver := h.profiles
	return layered.ProviderFunc[knockback.Config](func() (layered.Override[knockback.Config], bool) {
		override := layered.Override[knockback.Config]{Modify: modify, Multiplier: multiplier}
		if entry, ok := resolver.Resolve(profile); ok {
			cfg := entry.Config
			override.Custom = &cfg
		}
		if override.Custom == nil && len(modify) == 0 && len(multiplier) == 0 {
			return layered.Override[knockback.Config]{}, false
		}
		return override, true
	})
}

// advance runs a single simulation step and returns the snapshot plus stale
// subscribers. Sprint flags are sampled here, once per tick.
func (h *Hub) advance(now time.Time) ([]actorSnapshot, []*subscriber) {
	h.tick.Add(1)

	h.mu.Lock()
	toClose := make([]*subscriber, 0)
	var stale []string
	for id, player := range h.players {
		if now.Sub(player.lastHeartbeat) > disconnectAfter {
			if sub, ok := h.subscribers[id]; ok {
				toClose = append(toClose, sub)
				delete(h.subscribers, id)
			}
			delete(h.players, id)
			stale = append(stale, id)
			continue
		}
		h.tracker.Record(id, player.Sprinting)
		integrateActor(&player.Actor)
	}
	snapshot := h.snapshotLocked()
	h.mu.Unlock()

	for _, id := range stale {
		h.tracker.Forget(id)
	}
	return snapshot, toClose
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(h.settings.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			snapshot, toClose := h.advance(now)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.broadcastState(snapshot)
		}
	}
}

// DiagnosticsSnapshot exposes heartbeat and sprint-tracker data for the
// diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() diagnosticsPayload {
	h.mu.Lock()
	players := make([]diagnosticsPlayer, 0, len(h.players))
	for _, player := range h.players {
		players = append(players, diagnosticsPlayer{
			ID:            player.ID,
			LastHeartbeat: player.lastHeartbeat.UnixMilli(),
			RTTMillis:     player.LastRTT.Milliseconds(),
			Sprinting:     player.Sprinting,
		})
	}
	worldProfile := h.worldProfile
	h.mu.Unlock()

	return diagnosticsPayload{
		Tick:         h.tick.Load(),
		WorldProfile: worldProfile,
		Players:      players,
		Tracked:      h.tracker.Tracked(),
	}
}

func (h *Hub) profileIDs() []string {
	entries := h.profiles.Entries()
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) snapshotLocked() []actorSnapshot {
	actors := make([]actorSnapshot, 0, len(h.players))
	for _, player := range h.players {
		vel := player.Velocity()
		actors = append(actors, actorSnapshot{
			ID:        player.ID,
			X:         player.Position.X,
			Y:         player.Position.Y,
			Z:         player.Position.Z,
			VelX:      vel.X,
			VelY:      vel.Y,
			VelZ:      vel.Z,
			State:     string(player.Physical),
			Sprinting: player.Sprinting,
		})
	}
	return actors
}

func heldItemType(player *playerState) string {
	if player == nil || player.HeldItem == nil {
		return ""
	}
	return player.HeldItem.Type
}

func impactLevel(item *state.Item) int {
	if item == nil {
		return 0
	}
	return item.ImpactLevel
}
