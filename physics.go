package server

import (
	"stonefall/server/internal/state"
	"stonefall/server/knockback"
)

// integrateActor advances one actor by a single tick: position follows
// velocity, gravity pulls airborne actors down, drag bleeds horizontal speed.
// The physical state is reclassified afterwards so the next knockback resolve
// sees where the actor actually is.
func integrateActor(actor *state.Actor) {
	vel := actor.Velocity()
	actor.Position = actor.Position.Add(vel)

	if actor.Position.Y <= groundLevel {
		actor.Position.Y = groundLevel
		if vel.Y < 0 {
			vel.Y = 0
		}
		vel.X *= groundDragPerTick
		vel.Z *= groundDragPerTick
	} else {
		vel.Y -= gravityPerTick
		vel.X *= airDragPerTick
		vel.Z *= airDragPerTick
	}

	if vel.Length() < restEpsilon {
		vel = knockback.Vec3{}
	}
	actor.SetVelocity(vel)
	actor.Physical = classify(actor.Position, vel)
}

func classify(pos, vel knockback.Vec3) knockback.VictimState {
	if pos.Y <= groundLevel {
		return knockback.StateGrounded
	}
	if vel.Y < 0 {
		return knockback.StateFalling
	}
	return knockback.StateAirborne
}
