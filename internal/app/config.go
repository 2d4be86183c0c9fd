package app

import "errors"

// Config holds everything an App needs to load, validate, and run one
// graph file.
type Config struct {
	// GraphPath is the path to the persisted graph JSON file (spec.md §6).
	GraphPath string
	// ManifestsPath is the directory of HCL catalog manifests enriching the
	// registry's metadata (see internal/registry.LoadManifests).
	ManifestsPath string
	// SaveGraphPath, if non-empty, re-serialises the live graph back to this
	// path after the run completes, per --save-graph-json.
	SaveGraphPath string

	LogFormat string
	LogLevel  string

	// MetricsPort, if > 0, starts the /health + /metrics HTTP server.
	MetricsPort int
}

// NewConfig validates cfg and returns it, matching the teacher's
// fail-fast-on-construction idiom for CLI-derived configuration.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GraphPath == "" {
		return nil, errors.New("GraphPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
