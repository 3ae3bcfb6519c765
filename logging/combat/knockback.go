package combat

import (
	"context"

	"stonefall/server/logging"
)

const (
	// EventKnockbackApplied is emitted when a hit pushes its victim.
	EventKnockbackApplied logging.EventType = "combat.knockback_applied"
	// EventKnockbackDropped is emitted when an internal fault degraded a
	// knockback to a no-op for that hit.
	EventKnockbackDropped logging.EventType = "combat.knockback_dropped"
	// EventProfilesReloaded is emitted when the profile catalog is reloaded.
	EventProfilesReloaded logging.EventType = "config.profiles_reloaded"
)

// KnockbackAppliedPayload captures the impulse applied to a single victim.
type KnockbackAppliedPayload struct {
	ImpulseX    float64 `json:"impulseX"`
	ImpulseY    float64 `json:"impulseY"`
	ImpulseZ    float64 `json:"impulseZ"`
	Distance    float64 `json:"distance"`
	Sprinting   bool    `json:"sprinting"`
	CustomLayer int     `json:"customLayer"`
}

// KnockbackDroppedPayload names the fault that suppressed a knockback.
type KnockbackDroppedPayload struct {
	Reason string `json:"reason"`
}

// ProfilesReloadedPayload reports a catalog reload outcome.
type ProfilesReloadedPayload struct {
	Profiles int    `json:"profiles"`
	Source   string `json:"source,omitempty"`
}

// KnockbackApplied publishes the applied-impulse event for one hit.
func KnockbackApplied(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload KnockbackAppliedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventKnockbackApplied,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// KnockbackDropped publishes a warn event for a hit whose knockback was
// degraded to a no-op.
func KnockbackDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventKnockbackDropped,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCombat,
		Payload:  KnockbackDroppedPayload{Reason: reason},
	})
}

// ProfilesReloaded publishes a catalog reload event.
func ProfilesReloaded(ctx context.Context, pub logging.Publisher, tick uint64, profiles int, source string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProfilesReloaded,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryConfig,
		Payload:  ProfilesReloadedPayload{Profiles: profiles, Source: source},
	})
}
