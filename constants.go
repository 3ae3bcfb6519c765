package server

import "time"

const (
	writeWait         = 10 * time.Second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	defaultTickRate = 20

	// meleeReach is the trusted hit-validation distance; anything farther is
	// rejected before knockback runs.
	meleeReach     = 3.0
	strikeCooldown = 500 * time.Millisecond

	// Per-tick physics applied to actors carrying velocity.
	gravityPerTick    = 0.08
	airDragPerTick    = 0.91
	groundDragPerTick = 0.6
	groundLevel       = 0.0
	restEpsilon       = 1e-3
)
