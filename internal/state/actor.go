// Package state holds the mutable per-actor combat state owned by the hub.
package state

import (
	"time"

	"stonefall/server/knockback"
	"stonefall/server/layered"
)

// Item is something an actor can hold. Knockback carries the optional
// override layer attached to the item definition; most items have none.
// ImpactLevel is the enchant-style level the damage system reports for flat
// bonus knockback.
type Item struct {
	Type        string
	ImpactLevel int
	Knockback   *layered.Override[knockback.Config]
}

// Actor is the combat-relevant state for a player or NPC. Position and
// velocity are mutated on the tick goroutine while the hub lock is held.
type Actor struct {
	ID        string
	Kind      string
	Position  knockback.Vec3
	Look      knockback.Vec3
	Physical  knockback.VictimState
	Sprinting bool
	HeldItem  *Item
	Knockback *layered.Override[knockback.Config]
	LastRTT   time.Duration

	velocity knockback.Vec3
}

// Velocity returns the actor's current velocity.
func (a *Actor) Velocity() knockback.Vec3 {
	if a == nil {
		return knockback.Vec3{}
	}
	return a.velocity
}

// SetVelocity replaces the actor's velocity. Together with Velocity this
// satisfies the applicator's VelocityTarget contract.
func (a *Actor) SetVelocity(v knockback.Vec3) {
	if a == nil {
		return
	}
	a.velocity = v
}

// Airborne reports whether the actor currently has no ground support.
func (a *Actor) Airborne() bool {
	if a == nil {
		return false
	}
	return a.Physical == knockback.StateAirborne || a.Physical == knockback.StateFalling
}

// ItemLayer adapts a held item into an override provider. A nil item or an
// item without an override contributes nothing — resolution fails open.
func ItemLayer(item *Item) layered.Provider[knockback.Config] {
	return layered.ProviderFunc[knockback.Config](func() (layered.Override[knockback.Config], bool) {
		if item == nil || item.Knockback == nil {
			return layered.Override[knockback.Config]{}, false
		}
		return *item.Knockback, true
	})
}

// ActorLayer adapts an actor's attached override into a provider.
func ActorLayer(actor *Actor) layered.Provider[knockback.Config] {
	return layered.ProviderFunc[knockback.Config](func() (layered.Override[knockback.Config], bool) {
		if actor == nil || actor.Knockback == nil {
			return layered.Override[knockback.Config]{}, false
		}
		return *actor.Knockback, true
	})
}
