package server

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stonefall/server/catalog"
	"stonefall/server/logging"
)

// Settings is the server's YAML configuration. Zero values fall back to
// DefaultSettings during Load, so a partial file is valid.
type Settings struct {
	ListenAddr   string   `yaml:"listenAddr"`
	TickRate     int      `yaml:"tickRate"`
	ProfilePaths []string `yaml:"profilePaths"`

	// SprintWindowDouble widens latency-derived sprint windows to absorb
	// jitter on lossy connections.
	SprintWindowDouble bool `yaml:"sprintWindowDouble"`

	World   WorldSettings   `yaml:"world"`
	Logging LoggingSettings `yaml:"logging"`
}

// WorldSettings selects the world layer: a catalog profile ID plus stacking
// vectors applied on top of whatever the lower layers resolve to.
type WorldSettings struct {
	Profile    string    `yaml:"profile"`
	Modify     []float64 `yaml:"modify"`
	Multiplier []float64 `yaml:"multiplier"`
}

type LoggingSettings struct {
	Sinks       []string `yaml:"sinks"`
	MinSeverity string   `yaml:"minSeverity"`
	JSONPath    string   `yaml:"jsonPath"`
}

func DefaultSettings() Settings {
	return Settings{
		ListenAddr:   ":8080",
		TickRate:     defaultTickRate,
		ProfilePaths: catalog.DefaultPaths(),
		World:        WorldSettings{Profile: catalog.PresetDefault},
		Logging: LoggingSettings{
			Sinks:       []string{"console"},
			MinSeverity: "info",
		},
	}
}

// LoadSettings reads the YAML file at path, layered over the defaults. A
// missing file is not an error; a malformed or invalid one is.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if settings.TickRate == 0 {
		settings.TickRate = defaultTickRate
	}
	if len(settings.ProfilePaths) == 0 {
		settings.ProfilePaths = catalog.DefaultPaths()
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate aggregates every problem instead of stopping at the first, so a
// bad config file reports all of its mistakes in one pass.
func (s Settings) Validate() error {
	var errs []string
	if s.ListenAddr == "" {
		errs = append(errs, "listenAddr must not be empty")
	}
	if s.TickRate <= 0 || s.TickRate > 1000 {
		errs = append(errs, fmt.Sprintf("tickRate %d out of range (1..1000)", s.TickRate))
	}
	for _, v := range s.World.Multiplier {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("world.multiplier entry %v must be non-negative", v))
		}
	}
	switch s.Logging.MinSeverity {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.minSeverity %q unknown", s.Logging.MinSeverity))
	}
	for _, sink := range s.Logging.Sinks {
		switch sink {
		case "console", "json", "memory":
		default:
			errs = append(errs, fmt.Sprintf("logging.sinks entry %q unknown", sink))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	sort.Strings(errs)
	return fmt.Errorf("invalid settings: %s", strings.Join(errs, "; "))
}

func (s Settings) TickDuration() time.Duration {
	rate := s.TickRate
	if rate <= 0 {
		rate = defaultTickRate
	}
	return time.Second / time.Duration(rate)
}

// LoggingConfig translates the YAML section into the router's config.
func (s Settings) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if len(s.Logging.Sinks) > 0 {
		cfg.EnabledSinks = append([]string(nil), s.Logging.Sinks...)
	}
	if s.Logging.JSONPath != "" {
		cfg.JSON.FilePath = s.Logging.JSONPath
	}
	switch s.Logging.MinSeverity {
	case "debug":
		cfg.MinimumSeverity = logging.SeverityDebug
	case "warn":
		cfg.MinimumSeverity = logging.SeverityWarn
	case "error":
		cfg.MinimumSeverity = logging.SeverityError
	case "", "info":
		cfg.MinimumSeverity = logging.SeverityInfo
	}
	return cfg
}
