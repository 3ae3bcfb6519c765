package catalog

import "stonefall/server/knockback"

// ProfileDocument represents a single knockback profile as it appears on
// disk. The struct is exported so tooling (e.g. the schema generator) can
// reflect over the configuration contract shared with designers.
type ProfileDocument struct {
	ID      string          `json:"id" jsonschema:"title=Profile ID,description=Designer-facing identifier referenced by zone settings and tuning commands.,pattern=^[a-z0-9-]+$,minLength=1,required"`
	Preset  string          `json:"preset,omitempty" jsonschema:"title=Preset,description=Built-in profile this entry starts from. Defaults to 'default'.,enum=default,enum=arena,enum=smash,enum=legacy"`
	Profile knockback.Patch `json:"profile,omitempty" jsonschema:"title=Profile Patch,description=Fields overriding the chosen preset."`
}

// FileProfiles is the on-disk document shape: an array of profile entries.
type FileProfiles []ProfileDocument
