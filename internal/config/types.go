// Package config loads host configuration for ultralog: the user-override
// map, the spec-bundle directory to watch, the default downsample budget,
// and XDG path overrides, per spec §6 and §11's ambient configuration
// carve-out. A config file is optional; defaults plus environment
// variables always produce a usable configuration.
package config

// Config is the full set of host-tunable knobs. Every field has a usable
// default; a config file or ULTRALOG_* env var only needs to set what it
// wants to override.
type Config struct {
	// Overrides is the user-supplied raw-name-to-canonical map applied on
	// every future load, per spec §4.2/§6's set_user_overrides.
	Overrides map[string]string `koanf:"overrides"`

	// SpecBundleDir is watched for vendor-spec bundle changes and fed to
	// refresh_specs, per spec §4.1.
	SpecBundleDir string `koanf:"spec_bundle_dir"`

	// DownsampleBudget is the default point budget passed to downsample()
	// when the host doesn't choose one per call, per spec §4.7.
	DownsampleBudget int `koanf:"downsample_budget"`

	// DataDir overrides the platform-standard per-user data directory
	// ($XDG_DATA_HOME/ultralog on Linux) that holds the computed-channel
	// library document, per spec §6.
	DataDir string `koanf:"data_dir"`

	// MaxWorkers bounds the ingestion orchestrator's concurrent parses,
	// per spec §4.8. Zero selects the orchestrator's own default.
	MaxWorkers int `koanf:"max_workers"`
}

// ApplyDefaults fills every zero-valued field with its default, mirroring
// the reference design's choices (spec §4.7's B=2000).
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.DownsampleBudget == 0 {
		c.DownsampleBudget = 2000
	}
	if c.Overrides == nil {
		c.Overrides = make(map[string]string)
	}
}
