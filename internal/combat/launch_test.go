package combat

import (
	"math"
	"testing"

	"stonefall/server/knockback"
	"stonefall/server/layered"
)

func TestResolveLaunchStacksLayers(t *testing.T) {
	fast := LaunchProfile{Speed: 3, Spread: 0.01, Inherit: 0.5}

	resolved := ResolveLaunch(DefaultLaunchProfile(),
		layered.Static(layered.Override[LaunchProfile]{Custom: &fast}),
		layered.Static(layered.Override[LaunchProfile]{
			Modify:     []float64{1, 0, 0},
			Multiplier: []float64{2, 1, 0},
		}),
	)

	if got, want := resolved.Speed, (3.0+1.0)*2; got != want {
		t.Fatalf("speed = %g, want %g", got, want)
	}
	if resolved.Spread != 0.01 {
		t.Fatalf("spread = %g, want 0.01", resolved.Spread)
	}
	if resolved.Inherit != 0 {
		t.Fatalf("inherit = %g, want 0", resolved.Inherit)
	}
}

func TestResolveLaunchFloorsAtZero(t *testing.T) {
	resolved := ResolveLaunch(DefaultLaunchProfile(),
		layered.Static(layered.Override[LaunchProfile]{Modify: []float64{-100, 0, 0}}),
	)
	if resolved.Speed != 0 {
		t.Fatalf("speed must floor at zero, got %g", resolved.Speed)
	}
}

func TestLaunchVelocity(t *testing.T) {
	p := LaunchProfile{Speed: 2, Inherit: 0.5}
	aim := knockback.Vec3{Z: 10}
	shooter := knockback.Vec3{X: 1}

	vel := LaunchVelocity(p, aim, shooter)

	if math.Abs(vel.Z-2) > 1e-9 {
		t.Fatalf("launch Z = %g, want 2", vel.Z)
	}
	if math.Abs(vel.X-0.5) > 1e-9 {
		t.Fatalf("inherited X = %g, want 0.5", vel.X)
	}
}

func TestLaunchVelocityDegenerateAim(t *testing.T) {
	p := LaunchProfile{Speed: 2, Inherit: 1}
	shooter := knockback.Vec3{X: 1}

	vel := LaunchVelocity(p, knockback.Vec3{}, shooter)
	if vel != shooter {
		t.Fatalf("degenerate aim must keep only inherited velocity, got %+v", vel)
	}
}

func TestAimFromAngles(t *testing.T) {
	forward := AimFromAngles(0, 0)
	if math.Abs(forward.Z-1) > 1e-9 || math.Abs(forward.X) > 1e-9 || math.Abs(forward.Y) > 1e-9 {
		t.Fatalf("zero angles must aim along +Z, got %+v", forward)
	}

	up := AimFromAngles(0, -math.Pi/2)
	if math.Abs(up.Y-1) > 1e-9 {
		t.Fatalf("pitch -90 must aim straight up, got %+v", up)
	}
}
