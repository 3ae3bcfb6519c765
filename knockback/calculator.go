package knockback

// SourceKind distinguishes melee swings from projectile impacts when choosing
// a direction mode.
type SourceKind string

const (
	SourceMelee      SourceKind = "melee"
	SourceProjectile SourceKind = "projectile"
)

// impactBonusPerLevel is the flat horizontal bonus contributed by each level
// of an impact enchant. The bonus is supplied by the damage pipeline and sits
// outside profile resolution.
const impactBonusPerLevel = 0.5

// Attack captures a single validated hit. It is built per hit and discarded
// after application.
type Attack struct {
	AttackerID     string
	VictimID       string
	AttackerPos    Vec3
	VictimPos      Vec3
	VictimLook     Vec3
	VictimVelocity Vec3
	VictimState    VictimState
	Airborne       bool
	Distance       float64
	Sprinting      bool
	Source         SourceKind
	ImpactLevel    int
}

// ComputeImpulse turns a resolved profile and an attack context into the
// velocity impulse for the victim. It is a pure function: identical inputs
// always produce identical output, and all normalizations guard against
// zero-length input so coincident combatants never yield NaN.
func ComputeImpulse(cfg Config, atk Attack) Vec3 {
	if patch, ok := cfg.StateOverride(atk.VictimState); ok {
		cfg = cfg.patched(patch)
	}

	dir := horizontalDirection(cfg, atk)

	horizontal := cfg.Horizontal
	vertical := cfg.Vertical
	if atk.Airborne {
		horizontal *= cfg.AirHorizontalMul
		vertical *= cfg.AirVerticalMul
	}
	if atk.Sprinting {
		horizontal += cfg.SprintHorizontal
		vertical += cfg.SprintVertical
	}

	horizontal -= rangeFor(cfg, atk.Sprinting, true).ReductionAt(atk.Distance)
	vertical -= rangeFor(cfg, atk.Sprinting, false).ReductionAt(atk.Distance)
	if horizontal < 0 {
		horizontal = 0
	}
	if vertical < 0 {
		vertical = 0
	}

	if atk.ImpactLevel > 0 {
		horizontal += float64(atk.ImpactLevel) * impactBonusPerLevel
	}

	if cfg.VerticalCap > 0 && vertical > cfg.VerticalCap {
		vertical = cfg.VerticalCap
	}

	return Vec3{X: dir.X * horizontal, Y: vertical, Z: dir.Z * horizontal}
}

// horizontalDirection resolves the unit push direction in the horizontal
// plane. The attacker→victim displacement wins when it is long enough;
// otherwise the victim's facing keeps the direction stable, and a fixed axis
// is the final fallback when even the facing is degenerate.
func horizontalDirection(cfg Config, atk Attack) Vec3 {
	dir, ok := normalizeHorizontal(atk.VictimPos.Sub(atk.AttackerPos))
	if !ok {
		if look, lok := normalizeHorizontal(atk.VictimLook); lok {
			return look
		}
		return Vec3{Z: 1}
	}

	mode := cfg.MeleeDirection
	if atk.Source == SourceProjectile {
		mode = cfg.ProjectileDirection
	}
	if mode != DirectionLookBlend {
		return dir
	}

	look, lok := normalizeHorizontal(atk.VictimLook)
	if !lok {
		return dir
	}
	weight := clamp01(cfg.LookWeight)

	var mixed Vec3
	switch cfg.Blend {
	case BlendAddVectors:
		// Keeps the full displacement direction and adds the weighted look
		// on top. Diverges from the averaged variant whenever the two
		// directions disagree.
		mixed = dir.Add(look.Scale(weight))
	default:
		mixed = dir.Scale(1 - weight).Add(look.Scale(weight))
	}
	if blended, bok := normalizeHorizontal(mixed); bok {
		return blended
	}
	// Opposed directions can cancel out; fall back to the displacement.
	return dir
}

func rangeFor(cfg Config, sprinting, horizontal bool) RangeReduction {
	switch {
	case sprinting && horizontal:
		return cfg.Range.SprintHorizontal
	case sprinting:
		return cfg.Range.SprintVertical
	case horizontal:
		return cfg.Range.Horizontal
	default:
		return cfg.Range.Vertical
	}
}
