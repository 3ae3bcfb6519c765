package server

import (
	"context"
	"testing"
	"time"

	"stonefall/server/catalog"
	"stonefall/server/internal/state"
	"stonefall/server/knockback"
	"stonefall/server/layered"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	profiles, err := catalog.NewResolver()
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	settings := DefaultSettings()
	settings.ProfilePaths = nil
	return NewHub(settings, profiles, nil)
}

func (h *Hub) playerForTest(t *testing.T, id string, pos knockback.Vec3) *playerState {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	player, ok := h.players[id]
	if !ok {
		t.Fatalf("player %s missing", id)
	}
	player.Position = pos
	return player
}

func TestJoinAndStrikeAppliesKnockback(t *testing.T) {
	hub := newTestHub(t)

	attackerID := hub.Join().ID
	victimID := hub.Join().ID
	hub.playerForTest(t, attackerID, knockback.Vec3{Z: 2})
	victim := hub.playerForTest(t, victimID, knockback.Vec3{})

	if !hub.Strike(context.Background(), attackerID, victimID) {
		t.Fatalf("strike in reach must apply")
	}

	vel := victim.Velocity()
	if vel.Z >= 0 {
		t.Fatalf("victim must be pushed away from the attacker, got %+v", vel)
	}
	if vel.Y <= 0 {
		t.Fatalf("victim must be lifted, got %+v", vel)
	}
}

func TestStrikeRejectsOutOfReach(t *testing.T) {
	hub := newTestHub(t)

	attackerID := hub.Join().ID
	victimID := hub.Join().ID
	hub.playerForTest(t, attackerID, knockback.Vec3{Z: meleeReach + 5})
	victim := hub.playerForTest(t, victimID, knockback.Vec3{})

	if hub.Strike(context.Background(), attackerID, victimID) {
		t.Fatalf("strike out of reach must be refused")
	}
	if victim.Velocity() != (knockback.Vec3{}) {
		t.Fatalf("refused strike must not move the victim")
	}
}

func TestStrikeHonorsCooldown(t *testing.T) {
	hub := newTestHub(t)

	attackerID := hub.Join().ID
	victimID := hub.Join().ID
	hub.playerForTest(t, attackerID, knockback.Vec3{Z: 2})
	hub.playerForTest(t, victimID, knockback.Vec3{})

	if !hub.Strike(context.Background(), attackerID, victimID) {
		t.Fatalf("first strike must apply")
	}
	if hub.Strike(context.Background(), attackerID, victimID) {
		t.Fatalf("immediate second strike must be on cooldown")
	}
}

func TestStrikeRejectsSelfAndUnknown(t *testing.T) {
	hub := newTestHub(t)
	id := hub.Join().ID

	if hub.Strike(context.Background(), id, id) {
		t.Fatalf("self strike must be refused")
	}
	if hub.Strike(context.Background(), id, "ghost") {
		t.Fatalf("unknown victim must be refused")
	}
	if hub.Strike(context.Background(), "ghost", id) {
		t.Fatalf("unknown attacker must be refused")
	}
}

func TestStrikeUsesHeldItemLayer(t *testing.T) {
	hub := newTestHub(t)

	attackerID := hub.Join().ID
	victimID := hub.Join().ID
	attacker := hub.playerForTest(t, attackerID, knockback.Vec3{Z: 2})
	victim := hub.playerForTest(t, victimID, knockback.Vec3{})

	attacker.HeldItem = &state.Item{
		Type: "warhammer",
		Knockback: &layered.Override[knockback.Config]{
			Multiplier: []float64{3, 1, 1, 1},
		},
	}

	if !hub.Strike(context.Background(), attackerID, victimID) {
		t.Fatalf("strike must apply")
	}
	// Base 0.4 horizontal tripled by the item layer.
	if got := victim.Velocity().Z; got > -1.1 {
		t.Fatalf("item multiplier not applied, Z = %g", got)
	}
}

func TestEnvironmentalStrikeUsesVictimAnchors(t *testing.T) {
	hub := newTestHub(t)

	victimID := hub.Join().ID
	victim := hub.playerForTest(t, victimID, knockback.Vec3{})
	victim.Knockback = &layered.Override[knockback.Config]{
		Multiplier: []float64{2, 1, 1, 1},
	}

	if !hub.EnvironmentalStrike(context.Background(), victimID, knockback.Vec3{Z: 3}) {
		t.Fatalf("environmental strike must apply")
	}
	if got := victim.Velocity().Z; got >= -0.7 {
		t.Fatalf("victim layer multiplier not applied, Z = %g", got)
	}
}

func TestWorldProfileLayer(t *testing.T) {
	hub := newTestHub(t)
	id := hub.Join().ID

	cfg, ok := hub.ResolveProfile(id)
	if !ok {
		t.Fatalf("profile must resolve for a live player")
	}
	if cfg.Horizontal != 0.4 {
		t.Fatalf("default world profile horizontal = %g", cfg.Horizontal)
	}

	if hub.SetWorldProfile("volcanic") {
		t.Fatalf("unknown world profile must be rejected")
	}
	if !hub.SetWorldProfile(catalog.PresetArena) {
		t.Fatalf("known world profile must be accepted")
	}

	cfg, _ = hub.ResolveProfile(id)
	if cfg.Horizontal != 0.45 {
		t.Fatalf("arena profile horizontal = %g, want 0.45", cfg.Horizontal)
	}
}

func TestAdvanceSamplesSprintOncePerTick(t *testing.T) {
	hub := newTestHub(t)
	id := hub.Join().ID

	if !hub.UpdateMove(id, knockback.Vec3{}, knockback.Vec3{Z: 1}, true) {
		t.Fatalf("move update must succeed")
	}

	hub.advance(time.Now())

	if !hub.tracker.SprintedWithin(id, 1) {
		t.Fatalf("sprint flag must be sampled during advance")
	}
}

func TestAdvancePrunesStaleHeartbeats(t *testing.T) {
	hub := newTestHub(t)
	id := hub.Join().ID
	hub.tracker.Record(id, true)

	hub.advance(time.Now().Add(disconnectAfter + time.Second))

	hub.mu.Lock()
	_, alive := hub.players[id]
	hub.mu.Unlock()
	if alive {
		t.Fatalf("stale player must be pruned")
	}
	if hub.tracker.Tracked() != 0 {
		t.Fatalf("pruned player must lose its sprint buffer")
	}
}

func TestDisconnectForgetsSprintBuffer(t *testing.T) {
	hub := newTestHub(t)
	id := hub.Join().ID
	hub.tracker.Record(id, true)

	hub.Disconnect(id)

	if hub.tracker.Tracked() != 0 {
		t.Fatalf("disconnect must drop the sprint buffer")
	}
}

func TestUpdateHeartbeatDerivesRTT(t *testing.T) {
	hub := newTestHub(t)
	id := hub.Join().ID

	now := time.Now()
	rtt, ok := hub.UpdateHeartbeat(id, now, now.Add(-80*time.Millisecond).UnixMilli())
	if !ok {
		t.Fatalf("heartbeat must be accepted")
	}
	if rtt < 70*time.Millisecond || rtt > 120*time.Millisecond {
		t.Fatalf("rtt = %v, want about 80ms", rtt)
	}
}

func TestIntegrateActorGroundAndAir(t *testing.T) {
	actor := &state.Actor{Position: knockback.Vec3{Y: 0}}
	actor.SetVelocity(knockback.Vec3{Y: 0.4, Z: -0.4})

	integrateActor(actor)

	if actor.Position.Y <= 0 {
		t.Fatalf("upward velocity must lift the actor, got %+v", actor.Position)
	}
	if actor.Physical == knockback.StateGrounded {
		t.Fatalf("lifted actor must not be grounded")
	}

	// Integrate until it lands again.
	for i := 0; i < 1000 && actor.Position.Y > 0; i++ {
		integrateActor(actor)
	}
	if actor.Position.Y != 0 || actor.Physical != knockback.StateGrounded {
		t.Fatalf("actor must land and reclassify, got %+v state=%s", actor.Position, actor.Physical)
	}
}

func TestDiagnosticsSnapshot(t *testing.T) {
	hub := newTestHub(t)
	id := hub.Join().ID
	hub.tracker.Record(id, true)

	diag := hub.DiagnosticsSnapshot()
	if len(diag.Players) != 1 || diag.Players[0].ID != id {
		t.Fatalf("unexpected diagnostics %+v", diag)
	}
	if diag.Tracked != 1 {
		t.Fatalf("tracked buffers = %d, want 1", diag.Tracked)
	}
	if diag.WorldProfile != catalog.PresetDefault {
		t.Fatalf("world profile = %q", diag.WorldProfile)
	}
}
