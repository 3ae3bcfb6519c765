// Package catalog resolves designer-authored knockback profiles from disk.
// Profiles start from a built-in preset, patch individual fields, and are
// validated eagerly on load so a malformed file can never reach combat.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"stonefall/server/knockback"
)

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// MemorySource feeds the resolver from an in-memory document, used by tests
// and the tuning console.
type MemorySource struct {
	Name string
	Data []byte
}

func (m MemorySource) Load() ([]byte, error) {
	return m.Data, nil
}

func (m MemorySource) Path() string {
	return m.Name
}

// Entry is a resolved profile: the designer ID, the preset it derives from,
// and the validated immutable config.
type Entry struct {
	ID     string
	Preset string
	Config knockback.Config
}

// Resolver merges one or more profile sources into a stable lookup table.
// Call Reload to pick up on-disk changes (the hub wires a file watcher to it
// for dev hot reload).
type Resolver struct {
	mu      sync.RWMutex
	sources []source
	presets map[string]knockback.Config
	entries map[string]Entry
}

// DefaultPaths returns the canonical profile catalog locations relative to
// the server module root.
func DefaultPaths() []string {
	return []string{
		filepath.Join("config", "knockback", "profiles.json"),
	}
}

// Load constructs a Resolver backed by the provided catalog file paths.
// Missing files are skipped; everything that exists is validated now.
func Load(paths ...string) (*Resolver, error) {
	sources := make([]source, 0, len(paths))
	for _, path := range paths {
		trimmed := strings.TrimSpace(path)
		if trimmed == "" {
			continue
		}
		sources = append(sources, fileSource{path: trimmed})
	}
	return NewResolver(sources...)
}

// NewResolver constructs a Resolver from arbitrary sources. Tests supply
// MemorySource while production code uses file paths via Load.
func NewResolver(sources ...source) (*Resolver, error) {
	r := &Resolver{
		sources: append([]source(nil), sources...),
		presets: Presets(),
		entries: make(map[string]Entry),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses all catalog sources. Later sources override earlier ones
// to support local overlays during development. On error the previous table
// stays in place.
func (r *Resolver) Reload() error {
	if r == nil {
		return nil
	}
	entries := make(map[string]Entry)
	for name, cfg := range r.presets {
		entries[name] = Entry{ID: name, Preset: name, Config: cfg}
	}
	for _, src := range r.sources {
		data, err := src.Load()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("catalog: failed loading %s: %w", src.Path(), err)
		}
		documents, err := decodeProfiles(data)
		if err != nil {
			return fmt.Errorf("catalog: failed parsing %s: %w", src.Path(), err)
		}
		seen := make(map[string]struct{}, len(documents))
		for _, doc := range documents {
			id := strings.TrimSpace(doc.ID)
			if id == "" {
				return fmt.Errorf("catalog: entry missing id in %s", src.Path())
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("catalog: duplicate id %q in %s", id, src.Path())
			}
			seen[id] = struct{}{}

			preset := strings.TrimSpace(doc.Preset)
			if preset == "" {
				preset = PresetDefault
			}
			base, ok := r.presets[preset]
			if !ok {
				return fmt.Errorf("catalog: entry %q references unknown preset %q", id, preset)
			}

			cfg := base
			if !doc.Profile.IsZero() {
				cfg, err = base.With(doc.Profile)
				if err != nil {
					return fmt.Errorf("catalog: entry %q: %w", id, err)
				}
			}
			entries[id] = Entry{ID: id, Preset: preset, Config: cfg}
		}
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()
	return nil
}

// Resolve returns the profile entry for the provided designer ID.
func (r *Resolver) Resolve(id string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	return entry, ok
}

// Len returns the number of resolved profiles, presets included.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a snapshot of the profile table keyed by designer ID.
func (r *Resolver) Entries() map[string]Entry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Entry, len(r.entries))
	for id, entry := range r.entries {
		out[id] = entry
	}
	return out
}

func decodeProfiles(data []byte) ([]ProfileDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var documents FileProfiles
	if err := json.Unmarshal(trimmed, &documents); err != nil {
		return nil, err
	}
	return documents, nil
}
