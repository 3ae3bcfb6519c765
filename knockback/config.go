package knockback

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Component indexes the magnitude channels addressed by layered modify and
// multiplier vectors. The order is part of the designer-facing contract:
// override arrays on items, actors, and zones address channels by position.
type Component int

const (
	ComponentHorizontal Component = iota
	ComponentVertical
	ComponentSprintHorizontal
	ComponentSprintVertical

	ComponentCount
)

// VictimState names the physical state a victim occupies when struck.
// Profiles may attach per-state partial overrides keyed by these values.
type VictimState string

const (
	StateGrounded VictimState = "grounded"
	StateAirborne VictimState = "airborne"
	StateFalling  VictimState = "falling"
	StateSwimming VictimState = "swimming"
)

// ApplyMode selects how a computed impulse combines with the victim's
// pre-existing velocity.
type ApplyMode string

const (
	// ApplyBlend discards prior velocity proportionally to the legacy
	// friction value before adding the impulse.
	ApplyBlend ApplyMode = "blend"
	// ApplyAdd always adds the impulse to the existing velocity unmodified.
	ApplyAdd ApplyMode = "add"
)

// DirectionMode selects how the horizontal push direction is derived.
type DirectionMode string

const (
	// DirectionDisplacement pushes straight along the attacker→victim line.
	DirectionDisplacement DirectionMode = "displacement"
	// DirectionLookBlend mixes the displacement direction with the victim's
	// horizontal look vector, weighted by the profile's look weight.
	DirectionLookBlend DirectionMode = "look-blend"
)

// BlendStrategy names the two historical ways of mixing the displacement and
// look directions. They are not equivalent when the directions diverge and
// both are preserved as explicit variants.
type BlendStrategy string

const (
	// BlendNormalizedAverage weights both unit directions and normalizes the
	// weighted average.
	BlendNormalizedAverage BlendStrategy = "normalized-average"
	// BlendAddVectors adds the weighted look direction onto the full
	// displacement direction before a single re-normalization, biasing the
	// result toward the attack line.
	BlendAddVectors BlendStrategy = "add-vectors"
)

// RangeReduction describes distance-based magnitude falloff on one channel.
// Nothing is lost until Start; beyond it the magnitude drops by Decay per
// world unit until the loss saturates at Max.
type RangeReduction struct {
	Start float64 `json:"start" jsonschema:"minimum=0"`
	Decay float64 `json:"decay" jsonschema:"minimum=0"`
	Max   float64 `json:"max" jsonschema:"minimum=0"`
}

// ReductionAt returns the magnitude lost at the given distance. The loss is
// zero at or below Start and stops growing past Max (Max of zero means the
// decay never saturates).
func (r RangeReduction) ReductionAt(distance float64) float64 {
	if r.Decay <= 0 || distance <= r.Start {
		return 0
	}
	if r.Max > r.Start && distance > r.Max {
		distance = r.Max
	}
	return (distance - r.Start) * r.Decay
}

// RangeSet holds the per-axis falloff parameters, tracked independently for
// sprint and non-sprint hits.
type RangeSet struct {
	Horizontal       RangeReduction `json:"horizontal,omitempty"`
	Vertical         RangeReduction `json:"vertical,omitempty"`
	SprintHorizontal RangeReduction `json:"sprintHorizontal,omitempty"`
	SprintVertical   RangeReduction `json:"sprintVertical,omitempty"`
}

// Patch is a partial profile update. Nil fields inherit the base value; set
// fields replace it. Patches are how profiles express state-dependent
// overrides and how designers derive variants from presets.
type Patch struct {
	Horizontal          *float64       `json:"horizontal,omitempty" jsonschema:"minimum=0"`
	Vertical            *float64       `json:"vertical,omitempty" jsonschema:"minimum=0"`
	VerticalCap         *float64       `json:"verticalCap,omitempty" jsonschema:"minimum=0"`
	SprintHorizontal    *float64       `json:"sprintHorizontal,omitempty" jsonschema:"minimum=0"`
	SprintVertical      *float64       `json:"sprintVertical,omitempty" jsonschema:"minimum=0"`
	AirHorizontalMul    *float64       `json:"airHorizontalMul,omitempty" jsonschema:"minimum=0"`
	AirVerticalMul      *float64       `json:"airVerticalMul,omitempty" jsonschema:"minimum=0"`
	Friction            *float64       `json:"friction,omitempty" jsonschema:"minimum=0"`
	ApplyMode           *ApplyMode     `json:"applyMode,omitempty"`
	MeleeDirection      *DirectionMode `json:"meleeDirection,omitempty"`
	ProjectileDirection *DirectionMode `json:"projectileDirection,omitempty"`
	LookWeight          *float64       `json:"lookWeight,omitempty" jsonschema:"minimum=0,maximum=1"`
	Blend               *BlendStrategy `json:"blend,omitempty"`
	SprintBufferTicks   *int           `json:"sprintBufferTicks,omitempty" jsonschema:"minimum=0"`
	Range               *RangeSet      `json:"range,omitempty"`
}

// IsZero reports whether the patch sets nothing.
func (p Patch) IsZero() bool {
	return p == Patch{}
}

// Params is the construction input for a profile. All fields must be fully
// populated; start from DefaultParams and overwrite what differs.
type Params struct {
	Horizontal          float64               `json:"horizontal"`
	Vertical            float64               `json:"vertical"`
	VerticalCap         float64               `json:"verticalCap"`
	SprintHorizontal    float64               `json:"sprintHorizontal"`
	SprintVertical      float64               `json:"sprintVertical"`
	AirHorizontalMul    float64               `json:"airHorizontalMul"`
	AirVerticalMul      float64               `json:"airVerticalMul"`
	Friction            float64               `json:"friction"`
	ApplyMode           ApplyMode             `json:"applyMode"`
	MeleeDirection      DirectionMode         `json:"meleeDirection"`
	ProjectileDirection DirectionMode         `json:"projectileDirection"`
	LookWeight          float64               `json:"lookWeight"`
	Blend               BlendStrategy         `json:"blend"`
	SprintBufferTicks   int                   `json:"sprintBufferTicks"`
	Range               RangeSet              `json:"range"`
	StateOverrides      map[VictimState]Patch `json:"stateOverrides,omitempty"`
}

// Config is an immutable knockback profile. Instances are only produced by
// New, MustNew, and the copy-on-write methods; none of them ever mutate an
// existing value, so configs are safe to share across goroutines.
type Config struct {
	Horizontal          float64
	Vertical            float64
	VerticalCap         float64
	SprintHorizontal    float64
	SprintVertical      float64
	AirHorizontalMul    float64
	AirVerticalMul      float64
	Friction            float64
	ApplyMode           ApplyMode
	MeleeDirection      DirectionMode
	ProjectileDirection DirectionMode
	LookWeight          float64
	Blend               BlendStrategy
	SprintBufferTicks   int
	Range               RangeSet

	stateOverrides map[VictimState]Patch
}

// ErrInvalidProfile wraps every construction-time validation failure.
var ErrInvalidProfile = errors.New("knockback: invalid profile")

// DefaultParams returns the server-default profile parameters: the classic
// 0.4/0.4 push with a 0.4 vertical cap, half-retention legacy blend, and an
// eight tick sprint buffer.
func DefaultParams() Params {
	return Params{
		Horizontal:          0.4,
		Vertical:            0.4,
		VerticalCap:         0.4,
		SprintHorizontal:    0.1,
		SprintVertical:      0.0,
		AirHorizontalMul:    1.0,
		AirVerticalMul:      1.0,
		Friction:            2.0,
		ApplyMode:           ApplyBlend,
		MeleeDirection:      DirectionDisplacement,
		ProjectileDirection: DirectionDisplacement,
		LookWeight:          0.0,
		Blend:               BlendNormalizedAverage,
		SprintBufferTicks:   8,
	}
}

// Default returns the server-default profile.
func Default() Config {
	return MustNew(DefaultParams())
}

// New validates the parameters and builds an immutable profile. Validation is
// eager: physically nonsensical values are rejected here, never discovered
// mid-combat.
func New(p Params) (Config, error) {
	if err := validateParams(p); err != nil {
		return Config{}, err
	}
	return configFromParams(p), nil
}

// MustNew is New for compile-time presets; it panics on invalid parameters.
func MustNew(p Params) Config {
	cfg, err := New(p)
	if err != nil {
		panic(err)
	}
	return cfg
}

// With returns a copy of the profile with the patch applied and revalidated.
// The receiver is never modified.
func (c Config) With(patch Patch) (Config, error) {
	p := c.Params()
	applyPatch(&p, patch)
	return New(p)
}

// Params returns a copy of the profile as construction parameters, including
// a deep copy of the state-override map.
func (c Config) Params() Params {
	p := Params{
		Horizontal:          c.Horizontal,
		Vertical:            c.Vertical,
		VerticalCap:         c.VerticalCap,
		SprintHorizontal:    c.SprintHorizontal,
		SprintVertical:      c.SprintVertical,
		AirHorizontalMul:    c.AirHorizontalMul,
		AirVerticalMul:      c.AirVerticalMul,
		Friction:            c.Friction,
		ApplyMode:           c.ApplyMode,
		MeleeDirection:      c.MeleeDirection,
		ProjectileDirection: c.ProjectileDirection,
		LookWeight:          c.LookWeight,
		Blend:               c.Blend,
		SprintBufferTicks:   c.SprintBufferTicks,
		Range:               c.Range,
	}
	if len(c.stateOverrides) > 0 {
		p.StateOverrides = make(map[VictimState]Patch, len(c.stateOverrides))
		for state, patch := range c.stateOverrides {
			p.StateOverrides[state] = patch
		}
	}
	return p
}

// StateOverride returns the partial override attached to the given victim
// state, if any.
func (c Config) StateOverride(state VictimState) (Patch, bool) {
	patch, ok := c.stateOverrides[state]
	return patch, ok
}

// Adjusted folds stacked component contributions into the profile: each
// magnitude channel becomes (base + modify) * multiplier, floored at zero.
// Vectors shorter than ComponentCount leave trailing channels untouched.
func (c Config) Adjusted(modify, multiplier []float64) Config {
	adjust := func(idx Component, base float64) float64 {
		value := base
		if int(idx) < len(modify) {
			value += modify[idx]
		}
		if int(idx) < len(multiplier) {
			value *= multiplier[idx]
		}
		if value < 0 {
			return 0
		}
		return value
	}
	out := c
	out.Horizontal = adjust(ComponentHorizontal, c.Horizontal)
	out.Vertical = adjust(ComponentVertical, c.Vertical)
	out.SprintHorizontal = adjust(ComponentSprintHorizontal, c.SprintHorizontal)
	out.SprintVertical = adjust(ComponentSprintVertical, c.SprintVertical)
	return out
}

// patched applies a partial override field-by-field without revalidation.
// Patches reachable here were validated when their profile was constructed.
func (c Config) patched(p Patch) Config {
	out := c
	if p.Horizontal != nil {
		out.Horizontal = *p.Horizontal
	}
	if p.Vertical != nil {
		out.Vertical = *p.Vertical
	}
	if p.VerticalCap != nil {
		out.VerticalCap = *p.VerticalCap
	}
	if p.SprintHorizontal != nil {
		out.SprintHorizontal = *p.SprintHorizontal
	}
	if p.SprintVertical != nil {
		out.SprintVertical = *p.SprintVertical
	}
	if p.AirHorizontalMul != nil {
		out.AirHorizontalMul = *p.AirHorizontalMul
	}
	if p.AirVerticalMul != nil {
		out.AirVerticalMul = *p.AirVerticalMul
	}
	if p.Friction != nil {
		out.Friction = *p.Friction
	}
	if p.ApplyMode != nil {
		out.ApplyMode = *p.ApplyMode
	}
	if p.MeleeDirection != nil {
		out.MeleeDirection = *p.MeleeDirection
	}
	if p.ProjectileDirection != nil {
		out.ProjectileDirection = *p.ProjectileDirection
	}
	if p.LookWeight != nil {
		out.LookWeight = *p.LookWeight
	}
	if p.Blend != nil {
		out.Blend = *p.Blend
	}
	if p.SprintBufferTicks != nil {
		out.SprintBufferTicks = *p.SprintBufferTicks
	}
	if p.Range != nil {
		out.Range = *p.Range
	}
	return out
}

func configFromParams(p Params) Config {
	cfg := Config{
		Horizontal:          p.Horizontal,
		Vertical:            p.Vertical,
		VerticalCap:         p.VerticalCap,
		SprintHorizontal:    p.SprintHorizontal,
		SprintVertical:      p.SprintVertical,
		AirHorizontalMul:    p.AirHorizontalMul,
		AirVerticalMul:      p.AirVerticalMul,
		Friction:            p.Friction,
		ApplyMode:           p.ApplyMode,
		MeleeDirection:      p.MeleeDirection,
		ProjectileDirection: p.ProjectileDirection,
		LookWeight:          p.LookWeight,
		Blend:               p.Blend,
		SprintBufferTicks:   p.SprintBufferTicks,
		Range:               p.Range,
	}
	if len(p.StateOverrides) > 0 {
		cfg.stateOverrides = make(map[VictimState]Patch, len(p.StateOverrides))
		for state, patch := range p.StateOverrides {
			cfg.stateOverrides[state] = patch
		}
	}
	return cfg
}

func applyPatch(p *Params, patch Patch) {
	base := configFromParams(*p).patched(patch).Params()
	base.StateOverrides = p.StateOverrides
	*p = base
}

func validateParams(p Params) error {
	var errs []string

	nonNegative := func(name string, value float64) {
		if value < 0 {
			errs = append(errs, fmt.Sprintf("%s must not be negative (got %g)", name, value))
		}
	}
	nonNegative("horizontal", p.Horizontal)
	nonNegative("vertical", p.Vertical)
	nonNegative("verticalCap", p.VerticalCap)
	nonNegative("sprintHorizontal", p.SprintHorizontal)
	nonNegative("sprintVertical", p.SprintVertical)
	nonNegative("airHorizontalMul", p.AirHorizontalMul)
	nonNegative("airVerticalMul", p.AirVerticalMul)
	nonNegative("friction", p.Friction)

	if p.LookWeight < 0 || p.LookWeight > 1 {
		errs = append(errs, fmt.Sprintf("lookWeight must be in [0,1] (got %g)", p.LookWeight))
	}
	if p.SprintBufferTicks < 0 || p.SprintBufferTicks > SprintBufferCapacity {
		errs = append(errs, fmt.Sprintf("sprintBufferTicks must be in [0,%d] (got %d)", SprintBufferCapacity, p.SprintBufferTicks))
	}

	switch p.ApplyMode {
	case ApplyBlend, ApplyAdd:
	default:
		errs = append(errs, fmt.Sprintf("applyMode %q is unknown", p.ApplyMode))
	}
	for name, mode := range map[string]DirectionMode{"meleeDirection": p.MeleeDirection, "projectileDirection": p.ProjectileDirection} {
		switch mode {
		case DirectionDisplacement, DirectionLookBlend:
		default:
			errs = append(errs, fmt.Sprintf("%s %q is unknown", name, mode))
		}
	}
	switch p.Blend {
	case BlendNormalizedAverage, BlendAddVectors:
	default:
		errs = append(errs, fmt.Sprintf("blend %q is unknown", p.Blend))
	}

	validateRange := func(name string, r RangeReduction) {
		if r.Start < 0 {
			errs = append(errs, fmt.Sprintf("range.%s.start must not be negative (got %g)", name, r.Start))
		}
		if r.Decay < 0 {
			errs = append(errs, fmt.Sprintf("range.%s.decay must not be negative (got %g)", name, r.Decay))
		}
		if r.Max != 0 && r.Max < r.Start {
			errs = append(errs, fmt.Sprintf("range.%s.max %g is below start %g", name, r.Max, r.Start))
		}
	}
	validateRange("horizontal", p.Range.Horizontal)
	validateRange("vertical", p.Range.Vertical)
	validateRange("sprintHorizontal", p.Range.SprintHorizontal)
	validateRange("sprintVertical", p.Range.SprintVertical)

	for state, patch := range p.StateOverrides {
		switch state {
		case StateGrounded, StateAirborne, StateFalling, StateSwimming:
		default:
			errs = append(errs, fmt.Sprintf("stateOverrides key %q is unknown", state))
			continue
		}
		merged := p
		merged.StateOverrides = nil
		applyPatch(&merged, patch)
		if err := validateParams(merged); err != nil {
			errs = append(errs, fmt.Sprintf("stateOverrides[%s]: %v", state, err))
		}
	}

	if len(errs) > 0 {
		// Map iteration order would otherwise leak into the error text.
		sort.Strings(errs)
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(errs, "; "))
	}
	return nil
}
