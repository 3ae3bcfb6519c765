// Package layered implements the layered-override resolution engine shared by
// every profile type in the combat subsystem. A resolution walks an ordered
// list of layers (highest priority first), takes the first full custom value
// it finds, and independently stacks every layer's additive and
// multiplicative component contributions.
package layered

// Override carries a single layer's contribution for config type T. Any of
// the three parts may be absent: a nil Custom leaves the base untouched,
// missing Modify components default to zero, missing Multiplier components
// default to one.
type Override[T any] struct {
	Custom     *T        `json:"custom,omitempty"`
	Modify     []float64 `json:"modify,omitempty"`
	Multiplier []float64 `json:"multiplier,omitempty"`
}

// Provider yields the override a layer contributes, if any. Implementations
// exist per storage backend (item definitions, actor attachments, zone
// settings); the resolver never reaches into storage itself.
type Provider[T any] interface {
	OverrideLayer() (Override[T], bool)
}

// ProviderFunc adapts a closure to Provider.
type ProviderFunc[T any] func() (Override[T], bool)

// OverrideLayer satisfies Provider.
func (f ProviderFunc[T]) OverrideLayer() (Override[T], bool) {
	if f == nil {
		return Override[T]{}, false
	}
	return f()
}

// Resolved is the outcome of one resolution pass.
type Resolved[T any] struct {
	// Base is the first custom value found in priority order, or the
	// fallback when no layer supplies one.
	Base T
	// CustomLayer is the index of the layer that supplied Base, or -1 for
	// the fallback.
	CustomLayer int
	// Modify is the component-wise sum of every layer's additive deltas.
	Modify []float64
	// Multiplier is the component-wise product of every layer's factors.
	Multiplier []float64
}

// Resolve folds the layers in priority order. Custom resolution
// short-circuits on the first hit; modify and multiplier stacking never
// short-circuits and includes every layer regardless of which one won custom.
// Nil or absent layers are skipped silently — resolution fails open.
func Resolve[T any](fallback T, components int, layers ...Provider[T]) Resolved[T] {
	if components < 0 {
		components = 0
	}
	out := Resolved[T]{
		Base:        fallback,
		CustomLayer: -1,
		Modify:      make([]float64, components),
		Multiplier:  unitVector(components),
	}
	for idx, layer := range layers {
		if layer == nil {
			continue
		}
		override, ok := layer.OverrideLayer()
		if !ok {
			continue
		}
		if out.CustomLayer < 0 && override.Custom != nil {
			out.Base = *override.Custom
			out.CustomLayer = idx
		}
		for i, delta := range override.Modify {
			if i >= components {
				break
			}
			out.Modify[i] += delta
		}
		for i, factor := range override.Multiplier {
			if i >= components {
				break
			}
			out.Multiplier[i] *= factor
		}
	}
	return out
}

// Static wraps a fixed override into a Provider. A zero override still counts
// as present; use nil providers for absent layers.
func Static[T any](override Override[T]) Provider[T] {
	return ProviderFunc[T](func() (Override[T], bool) {
		return override, true
	})
}

func unitVector(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
