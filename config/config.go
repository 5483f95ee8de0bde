// Package config collects the process-wide constants from spec section 6
// into a single HCL-loadable Config, the way the teacher's
// internal/server/config.go and internal/client/config.go decode their
// own ServerConfig/ClientConfig: a "load if present, otherwise fall back
// to Default()" contract, built on hashicorp/hcl/v2's gohcl.DecodeBody.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// file is the single top-level HCL block Obscuro's config file carries,
// mirroring the teacher's one-block-per-concern layout but collapsed to
// a single `engine { ... }` block since Obscuro has only one concern.
type file struct {
	Engine Engine `hcl:"engine,block"`
}

// Engine holds spec section 6's tunables, each optional in HCL so a
// config file only needs to override what it changes from Default().
type Engine struct {
	SolveTimeSecs         float64 `hcl:"solve_time_secs,optional"`
	MinInfosetSize        int     `hcl:"min_infoset_size,optional"`
	KCover                int     `hcl:"k_cover,optional"`
	ExploreConstant       float64 `hcl:"explore_constant,optional"`
	CFRSweepsPerExpansion int     `hcl:"cfr_sweeps_per_expansion,optional"`
	ParallelThreads       int     `hcl:"parallel_threads,optional"`
}

// Config is the decoded, defaulted configuration.
type Config struct {
	Engine Engine
}

// SolveTime converts SolveTimeSecs to a time.Duration for direct use by
// engine.Config/parallel.Config.
func (c Config) SolveTime() time.Duration {
	return time.Duration(c.Engine.SolveTimeSecs * float64(time.Second))
}

// Default returns spec section 6's default tunables.
func Default() Config {
	return Config{Engine: Engine{
		SolveTimeSecs:         5,
		MinInfosetSize:        256,
		KCover:                3,
		ExploreConstant:       1.4,
		CFRSweepsPerExpansion: 10,
		ParallelThreads:       4,
	}}
}

// Load reads an HCL config file at path, falling back to Default() when
// the file does not exist. Zero-valued fields after decoding (an omitted
// `optional` attribute) are filled in from Default() rather than left at
// Go's zero value, the same way the teacher's LoadServerConfig/
// LoadClientConfig backfill missing settings after gohcl.DecodeBody.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("config: parse %s: %s", path, diags.Error())
	}

	var decoded file
	diags = gohcl.DecodeBody(f.Body, nil, &decoded)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("config: decode %s: %s", path, diags.Error())
	}

	cfg := Config{Engine: decoded.Engine}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default().Engine
	if c.Engine.SolveTimeSecs == 0 {
		c.Engine.SolveTimeSecs = def.SolveTimeSecs
	}
	if c.Engine.MinInfosetSize == 0 {
		c.Engine.MinInfosetSize = def.MinInfosetSize
	}
	if c.Engine.KCover == 0 {
		c.Engine.KCover = def.KCover
	}
	if c.Engine.ExploreConstant == 0 {
		c.Engine.ExploreConstant = def.ExploreConstant
	}
	if c.Engine.CFRSweepsPerExpansion == 0 {
		c.Engine.CFRSweepsPerExpansion = def.CFRSweepsPerExpansion
	}
	if c.Engine.ParallelThreads == 0 {
		c.Engine.ParallelThreads = def.ParallelThreads
	}
}

// Validate reports caller-supplied configuration errors as descriptive
// errors rather than panicking, matching the teacher's
// AbstractionConfig.Validate()/TrainingConfig.Validate() style.
func (c Config) Validate() error {
	if c.Engine.SolveTimeSecs <= 0 {
		return fmt.Errorf("config: solve_time_secs must be positive, got %v", c.Engine.SolveTimeSecs)
	}
	if c.Engine.MinInfosetSize < 1 {
		return fmt.Errorf("config: min_infoset_size must be at least 1, got %d", c.Engine.MinInfosetSize)
	}
	if c.Engine.KCover < 0 {
		return fmt.Errorf("config: k_cover must be non-negative, got %d", c.Engine.KCover)
	}
	if c.Engine.ExploreConstant <= 0 {
		return fmt.Errorf("config: explore_constant must be positive, got %v", c.Engine.ExploreConstant)
	}
	if c.Engine.CFRSweepsPerExpansion < 1 {
		return fmt.Errorf("config: cfr_sweeps_per_expansion must be at least 1, got %d", c.Engine.CFRSweepsPerExpansion)
	}
	if c.Engine.ParallelThreads < 1 {
		return fmt.Errorf("config: parallel_threads must be at least 1, got %d", c.Engine.ParallelThreads)
	}
	return nil
}
