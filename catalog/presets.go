package catalog

import "stonefall/server/knockback"

// Preset names recognized by profile documents.
const (
	PresetDefault = "default"
	PresetArena   = "arena"
	PresetSmash   = "smash"
	PresetLegacy  = "legacy"
)

// Presets returns the built-in profiles designer documents may start from.
// These are constructed with MustNew so a nonsensical preset fails at
// startup, never mid-combat.
func Presets() map[string]knockback.Config {
	return map[string]knockback.Config{
		PresetDefault: knockback.Default(),
		PresetArena:   arenaPreset(),
		PresetSmash:   smashPreset(),
		PresetLegacy:  legacyPreset(),
	}
}

// arenaPreset is tuned for ranked duels: stronger sprint reward, falloff past
// mid range so spear pokes stop launching people, and a latency-derived
// sprint window.
func arenaPreset() knockback.Config {
	p := knockback.DefaultParams()
	p.Horizontal = 0.45
	p.SprintHorizontal = 0.15
	p.SprintBufferTicks = 0
	p.Range = knockback.RangeSet{
		Horizontal:       knockback.RangeReduction{Start: 2.5, Decay: 0.04, Max: 10},
		SprintHorizontal: knockback.RangeReduction{Start: 2.0, Decay: 0.06, Max: 8},
	}
	return knockback.MustNew(p)
}

// smashPreset stacks hits additively and punishes airborne victims, for the
// knock-off-the-platform game mode.
func smashPreset() knockback.Config {
	p := knockback.DefaultParams()
	p.ApplyMode = knockback.ApplyAdd
	p.Vertical = 0.5
	p.VerticalCap = 0.9
	p.AirHorizontalMul = 1.4
	p.AirVerticalMul = 1.2
	p.MeleeDirection = knockback.DirectionLookBlend
	p.LookWeight = 0.25
	p.Blend = knockback.BlendAddVectors
	p.StateOverrides = map[knockback.VictimState]knockback.Patch{
		knockback.StateFalling: {
			Vertical:    ptr(0.0),
			VerticalCap: ptr(0.0),
		},
	}
	return knockback.MustNew(p)
}

// legacyPreset reproduces the pre-modern feel: heavy retention of prior
// momentum and averaged look blending on projectiles.
func legacyPreset() knockback.Config {
	p := knockback.DefaultParams()
	p.Friction = 6.0
	p.ProjectileDirection = knockback.DirectionLookBlend
	p.LookWeight = 0.5
	p.Blend = knockback.BlendNormalizedAverage
	return knockback.MustNew(p)
}

func ptr[T any](v T) *T {
	return &v
}
