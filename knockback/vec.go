package knockback

import "math"

// directionEpsilon is the smallest horizontal displacement that still yields a
// usable direction. Anything shorter falls back to the victim's facing.
const directionEpsilon = 1e-4

// Vec3 is a displacement or velocity in world units. Y is the vertical axis;
// X and Z span the horizontal plane.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the component-wise sum.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns the component-wise difference.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns the vector multiplied by f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{X: v.X * f, Y: v.Y * f, Z: v.Z * f}
}

// Length returns the Euclidean length.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// HorizontalLength returns the length of the X/Z projection.
func (v Vec3) HorizontalLength() float64 {
	return math.Hypot(v.X, v.Z)
}

// normalizeHorizontal projects v onto the horizontal plane and normalizes it.
// It reports false when the projection is shorter than directionEpsilon so
// callers never divide by a near-zero length.
func normalizeHorizontal(v Vec3) (Vec3, bool) {
	length := math.Hypot(v.X, v.Z)
	if length < directionEpsilon {
		return Vec3{}, false
	}
	return Vec3{X: v.X / length, Z: v.Z / length}, true
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
