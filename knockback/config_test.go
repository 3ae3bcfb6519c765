package knockback

import (
	"errors"
	"strings"
	"testing"
)

func TestNewRejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		message string
	}{
		{
			name:    "negative horizontal",
			mutate:  func(p *Params) { p.Horizontal = -0.1 },
			message: "horizontal",
		},
		{
			name:    "look weight above one",
			mutate:  func(p *Params) { p.LookWeight = 1.5 },
			message: "lookWeight",
		},
		{
			name:    "sprint window beyond capacity",
			mutate:  func(p *Params) { p.SprintBufferTicks = SprintBufferCapacity + 1 },
			message: "sprintBufferTicks",
		},
		{
			name:    "unknown apply mode",
			mutate:  func(p *Params) { p.ApplyMode = "bounce" },
			message: "applyMode",
		},
		{
			name:    "unknown blend strategy",
			mutate:  func(p *Params) { p.Blend = "harmonic" },
			message: "blend",
		},
		{
			name: "range max below start",
			mutate: func(p *Params) {
				p.Range.Horizontal = RangeReduction{Start: 5, Decay: 0.1, Max: 2}
			},
			message: "range.horizontal.max",
		},
		{
			name: "invalid state override",
			mutate: func(p *Params) {
				p.StateOverrides = map[VictimState]Patch{
					StateAirborne: {Friction: ptrFloat(-1)},
				}
			},
			message: "stateOverrides[airborne]",
		},
		{
			name: "unknown state key",
			mutate: func(p *Params) {
				p.StateOverrides = map[VictimState]Patch{"levitating": {}}
			},
			message: "levitating",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParams()
			tc.mutate(&params)

			_, err := New(params)
			if err == nil {
				t.Fatalf("expected construction to fail")
			}
			if !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("expected ErrInvalidProfile, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected error mentioning %q, got %v", tc.message, err)
			}
		})
	}
}

func TestValidationAggregatesAllFailures(t *testing.T) {
	params := DefaultParams()
	params.Horizontal = -1
	params.Vertical = -1
	params.LookWeight = 2

	_, err := New(params)
	if err == nil {
		t.Fatalf("expected construction to fail")
	}
	for _, want := range []string{"horizontal", "vertical", "lookWeight"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected aggregated error to mention %q, got %v", want, err)
		}
	}
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	base := Default()

	patched, err := base.With(Patch{Horizontal: ptrFloat(0.9)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if base.Horizontal != 0.4 {
		t.Fatalf("receiver mutated: horizontal now %g", base.Horizontal)
	}
	if patched.Horizontal != 0.9 {
		t.Fatalf("patch not applied: horizontal %g", patched.Horizontal)
	}
}

func TestWithRevalidates(t *testing.T) {
	base := Default()

	if _, err := base.With(Patch{Friction: ptrFloat(-3)}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestParamsDeepCopiesStateOverrides(t *testing.T) {
	params := DefaultParams()
	params.StateOverrides = map[VictimState]Patch{
		StateAirborne: {Horizontal: ptrFloat(0.2)},
	}
	cfg := MustNew(params)

	copied := cfg.Params()
	copied.StateOverrides[StateAirborne] = Patch{Horizontal: ptrFloat(99)}

	patch, ok := cfg.StateOverride(StateAirborne)
	if !ok {
		t.Fatalf("expected airborne override")
	}
	if *patch.Horizontal != 0.2 {
		t.Fatalf("config state override mutated through Params copy: %g", *patch.Horizontal)
	}
}

func TestAdjustedCombinesAndFloors(t *testing.T) {
	cfg := Default()

	adjusted := cfg.Adjusted(
		[]float64{0.1, -1.0, 0.05, 0},
		[]float64{2, 3, 1, 1},
	)

	if got, want := adjusted.Horizontal, (0.4+0.1)*2; !almost(got, want) {
		t.Fatalf("horizontal: got %g want %g", got, want)
	}
	if adjusted.Vertical != 0 {
		t.Fatalf("vertical should floor at zero, got %g", adjusted.Vertical)
	}
	if got, want := adjusted.SprintHorizontal, 0.1+0.05; !almost(got, want) {
		t.Fatalf("sprintHorizontal: got %g want %g", got, want)
	}
	if cfg.Horizontal != 0.4 {
		t.Fatalf("Adjusted mutated the receiver: %g", cfg.Horizontal)
	}
}

func TestAdjustedShortVectorsLeaveTrailingChannels(t *testing.T) {
	cfg := Default()

	adjusted := cfg.Adjusted([]float64{0.1}, []float64{2})

	if adjusted.Vertical != cfg.Vertical {
		t.Fatalf("vertical changed: %g", adjusted.Vertical)
	}
	if adjusted.SprintHorizontal != cfg.SprintHorizontal {
		t.Fatalf("sprintHorizontal changed: %g", adjusted.SprintHorizontal)
	}
}

func TestRangeReduction(t *testing.T) {
	r := RangeReduction{Start: 2, Decay: 0.05, Max: 8}

	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 0},
		{2, 0},
		{4, 0.1},
		{8, 0.3},
		{20, 0.3}, // saturated at max
	}
	for _, tc := range tests {
		if got := r.ReductionAt(tc.distance); !almost(got, tc.want) {
			t.Fatalf("ReductionAt(%g) = %g, want %g", tc.distance, got, tc.want)
		}
	}

	unbounded := RangeReduction{Start: 2, Decay: 0.05}
	if got := unbounded.ReductionAt(22); !almost(got, 1.0) {
		t.Fatalf("unbounded decay at 22 = %g, want 1.0", got)
	}
}

func ptrFloat(v float64) *float64 { return &v }

func almost(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
