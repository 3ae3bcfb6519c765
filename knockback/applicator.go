package knockback

import (
	"context"
	"fmt"
	"time"

	"stonefall/server/layered"
	"stonefall/server/logging"
	combatlog "stonefall/server/logging/combat"
)

// VelocityTarget is the applicator's single side-effect surface: reading and
// replacing the victim's velocity.
type VelocityTarget interface {
	Velocity() Vec3
	SetVelocity(Vec3)
}

// OverrideProvider supplies one layer's knockback override.
type OverrideProvider = layered.Provider[Config]

// Hit bundles everything the applicator needs for one strike. Layers are
// ordered by priority: held item, attacking entity, attacking player, victim,
// world/zone. Absent layers may be nil.
type Hit struct {
	Tick        uint64
	Attack      Attack
	AttackerRTT time.Duration
	Victim      VelocityTarget
	Layers      []OverrideProvider
}

// Applicator orchestrates resolution, vector math, and the velocity blend.
// The fallback profile is owned explicitly by the combat root that constructs
// the applicator; there is no process-wide default.
type Applicator struct {
	fallback     Config
	tracker      *SprintWindowTracker
	tickDuration time.Duration
	doubleWindow bool
	pub          logging.Publisher
}

// NewApplicator builds an applicator around the server-default profile.
// tickDuration feeds the latency-derived sprint window; doubleWindow grants
// the extra jitter slack.
func NewApplicator(fallback Config, tracker *SprintWindowTracker, tickDuration time.Duration, doubleWindow bool, pub logging.Publisher) *Applicator {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Applicator{
		fallback:     fallback,
		tracker:      tracker,
		tickDuration: tickDuration,
		doubleWindow: doubleWindow,
		pub:          pub,
	}
}

// Resolve returns the effective profile for a layer stack without applying
// anything. Other systems reuse this query for their own profile types via
// the layered package; this variant is the knockback-typed convenience.
func (a *Applicator) Resolve(layers ...OverrideProvider) Config {
	resolved := layered.Resolve(a.fallback, int(ComponentCount), layers...)
	return resolved.Base.Adjusted(resolved.Modify, resolved.Multiplier)
}

// Apply computes and applies knockback for a single validated hit. The only
// observable effect is the victim's velocity changing. Internal faults are
// contained here: the hit degrades to a no-op, a warn event is published, and
// nothing propagates into the damage pipeline.
func (a *Applicator) Apply(ctx context.Context, hit Hit) (applied bool) {
	if a == nil || hit.Victim == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			applied = false
			combatlog.KnockbackDropped(ctx, a.pub, hit.Tick,
				logging.EntityRef{ID: hit.Attack.AttackerID, Kind: logging.EntityKindPlayer},
				logging.EntityRef{ID: hit.Attack.VictimID, Kind: logging.EntityKindPlayer},
				fmt.Sprintf("%v", r))
		}
	}()

	resolved := layered.Resolve(a.fallback, int(ComponentCount), hit.Layers...)
	cfg := resolved.Base.Adjusted(resolved.Modify, resolved.Multiplier)

	atk := hit.Attack
	window := Window(cfg.SprintBufferTicks, hit.AttackerRTT, a.tickDuration, a.doubleWindow)
	atk.Sprinting = a.tracker.SprintedWithin(atk.AttackerID, window)

	impulse := ComputeImpulse(cfg, atk)

	current := hit.Victim.Velocity()
	var next Vec3
	switch cfg.ApplyMode {
	case ApplyAdd:
		next = current.Add(impulse)
	default:
		next = current.Scale(FrictionRetention(cfg.Friction)).Add(impulse)
	}
	hit.Victim.SetVelocity(next)

	combatlog.KnockbackApplied(ctx, a.pub, hit.Tick,
		logging.EntityRef{ID: atk.AttackerID, Kind: logging.EntityKindPlayer},
		logging.EntityRef{ID: atk.VictimID, Kind: logging.EntityKindPlayer},
		combatlog.KnockbackAppliedPayload{
			ImpulseX:    impulse.X,
			ImpulseY:    impulse.Y,
			ImpulseZ:    impulse.Z,
			Distance:    atk.Distance,
			Sprinting:   atk.Sprinting,
			CustomLayer: resolved.CustomLayer,
		})
	return true
}

// FrictionRetention maps the legacy friction value to the fraction of prior
// velocity retained before the impulse is added. Zero discards prior velocity
// entirely, 2.0 keeps roughly half, and large values approach full retention.
func FrictionRetention(friction float64) float64 {
	if friction <= 0 {
		return 0
	}
	return friction / (friction + 2)
}
