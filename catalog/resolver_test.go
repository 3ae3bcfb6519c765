package catalog

import (
	"strings"
	"testing"

	"stonefall/server/knockback"
)

func TestPresetsAlwaysResolve(t *testing.T) {
	r, err := NewResolver()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{PresetDefault, PresetArena, PresetSmash, PresetLegacy} {
		entry, ok := r.Resolve(name)
		if !ok {
			t.Fatalf("preset %q missing", name)
		}
		if entry.Preset != name {
			t.Fatalf("preset %q reports derivation %q", name, entry.Preset)
		}
	}
}

func TestResolverAppliesPatchOverPreset(t *testing.T) {
	src := MemorySource{
		Name: "test.json",
		Data: []byte(`[{"id":"heavy","preset":"default","profile":{"horizontal":0.8,"friction":0}}]`),
	}
	r, err := NewResolver(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, ok := r.Resolve("heavy")
	if !ok {
		t.Fatalf("profile heavy missing")
	}
	if entry.Config.Horizontal != 0.8 {
		t.Fatalf("patched horizontal = %g, want 0.8", entry.Config.Horizontal)
	}
	if entry.Config.Friction != 0 {
		t.Fatalf("patched friction = %g, want 0", entry.Config.Friction)
	}
	if entry.Config.Vertical != 0.4 {
		t.Fatalf("unpatched vertical must inherit the preset, got %g", entry.Config.Vertical)
	}
}

func TestResolverDefaultsMissingPreset(t *testing.T) {
	src := MemorySource{Name: "test.json", Data: []byte(`[{"id":"plain"}]`)}
	r, err := NewResolver(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, ok := r.Resolve("plain")
	if !ok {
		t.Fatalf("profile plain missing")
	}
	if entry.Preset != PresetDefault {
		t.Fatalf("missing preset must default, got %q", entry.Preset)
	}
}

func TestResolverRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		message string
	}{
		{
			name:    "duplicate id",
			data:    `[{"id":"dup"},{"id":"dup"}]`,
			message: "duplicate id",
		},
		{
			name:    "missing id",
			data:    `[{"preset":"arena"}]`,
			message: "missing id",
		},
		{
			name:    "unknown preset",
			data:    `[{"id":"x","preset":"volcanic"}]`,
			message: "unknown preset",
		},
		{
			name:    "invalid patch",
			data:    `[{"id":"x","profile":{"horizontal":-2}}]`,
			message: "horizontal",
		},
		{
			name:    "malformed json",
			data:    `{"not":"an array"}`,
			message: "failed parsing",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewResolver(MemorySource{Name: "test.json", Data: []byte(tc.data)})
			if err == nil {
				t.Fatalf("expected load to fail")
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected error mentioning %q, got %v", tc.message, err)
			}
		})
	}
}

func TestResolverLaterSourcesOverrideEarlier(t *testing.T) {
	base := MemorySource{Name: "base.json", Data: []byte(`[{"id":"zone","profile":{"horizontal":0.3}}]`)}
	overlay := MemorySource{Name: "overlay.json", Data: []byte(`[{"id":"zone","profile":{"horizontal":0.7}}]`)}

	r, err := NewResolver(base, overlay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, _ := r.Resolve("zone")
	if entry.Config.Horizontal != 0.7 {
		t.Fatalf("overlay must win, got horizontal %g", entry.Config.Horizontal)
	}
}

func TestReloadKeepsTableOnError(t *testing.T) {
	src := &mutableSource{data: []byte(`[{"id":"zone","profile":{"horizontal":0.3}}]`)}
	r, err := NewResolver(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src.data = []byte(`[{"id":"zone","profile":{"horizontal":-9}}]`)
	if err := r.Reload(); err == nil {
		t.Fatalf("expected reload to fail")
	}

	entry, ok := r.Resolve("zone")
	if !ok || entry.Config.Horizontal != 0.3 {
		t.Fatalf("previous table must survive a failed reload, got %+v ok=%v", entry, ok)
	}
}

func TestReloadPicksUpChanges(t *testing.T) {
	src := &mutableSource{data: []byte(`[]`)}
	r, err := NewResolver(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.Resolve("zone"); ok {
		t.Fatalf("profile zone should not exist yet")
	}

	src.data = []byte(`[{"id":"zone"}]`)
	if err := r.Reload(); err != nil {
		t.Fatalf("unexpected reload error: %v", err)
	}
	if _, ok := r.Resolve("zone"); !ok {
		t.Fatalf("profile zone missing after reload")
	}
}

func TestSmashPresetCarriesFallingOverride(t *testing.T) {
	cfg := Presets()[PresetSmash]

	patch, ok := cfg.StateOverride(knockback.StateFalling)
	if !ok {
		t.Fatalf("smash preset must override the falling state")
	}
	if patch.Vertical == nil || *patch.Vertical != 0 {
		t.Fatalf("falling override must zero the vertical, got %+v", patch)
	}
	if cfg.ApplyMode != knockback.ApplyAdd {
		t.Fatalf("smash preset must stack hits additively, got %q", cfg.ApplyMode)
	}
}

type mutableSource struct {
	data []byte
}

func (m *mutableSource) Load() ([]byte, error) { return m.data, nil }
func (m *mutableSource) Path() string          { return "mutable.json" }
