package combat

import (
	"math"

	"stonefall/server/knockback"
	"stonefall/server/layered"
)

// LaunchProfile configures projectile launch velocity. It is resolved through
// the same layered override engine as knockback profiles, which is the whole
// point: the resolver is generic over the config type.
type LaunchProfile struct {
	Speed   float64
	Spread  float64
	Inherit float64
}

// Launch component indices for layered modify/multiplier vectors.
const (
	LaunchSpeed = iota
	LaunchSpread
	LaunchInherit

	LaunchComponentCount
)

// DefaultLaunchProfile is the server fallback for projectile launches.
func DefaultLaunchProfile() LaunchProfile {
	return LaunchProfile{Speed: 1.5, Spread: 0.0075, Inherit: 1.0}
}

// ResolveLaunch folds the layer stack into an effective launch profile:
// (base + modify) * multiplier per component, floored at zero.
func ResolveLaunch(fallback LaunchProfile, layers ...layered.Provider[LaunchProfile]) LaunchProfile {
	resolved := layered.Resolve(fallback, LaunchComponentCount, layers...)
	adjust := func(idx int, base float64) float64 {
		value := (base + resolved.Modify[idx]) * resolved.Multiplier[idx]
		if value < 0 {
			return 0
		}
		return value
	}
	return LaunchProfile{
		Speed:   adjust(LaunchSpeed, resolved.Base.Speed),
		Spread:  adjust(LaunchSpread, resolved.Base.Spread),
		Inherit: adjust(LaunchInherit, resolved.Base.Inherit),
	}
}

// LaunchVelocity composes the initial projectile velocity: the aim direction
// scaled to launch speed plus the inherited fraction of the shooter's own
// velocity. Spread is applied downstream by the flight simulation, which owns
// the randomness.
func LaunchVelocity(p LaunchProfile, aim, shooterVelocity knockback.Vec3) knockback.Vec3 {
	length := aim.Length()
	if length < 1e-9 {
		return shooterVelocity.Scale(p.Inherit)
	}
	dir := aim.Scale(1 / length)
	return dir.Scale(p.Speed).Add(shooterVelocity.Scale(p.Inherit))
}

// AimFromAngles converts yaw/pitch in radians into a unit aim vector.
func AimFromAngles(yaw, pitch float64) knockback.Vec3 {
	cosPitch := math.Cos(pitch)
	return knockback.Vec3{
		X: -math.Sin(yaw) * cosPitch,
		Y: -math.Sin(pitch),
		Z: math.Cos(yaw) * cosPitch,
	}
}
