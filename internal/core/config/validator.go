package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateBuild(cfg *Config) error {
	if filepath.Ext(cfg.Entry) != ".wv" {
		return fmt.Errorf("entry %q must be a .wv file", cfg.Entry)
	}
	if cfg.Stdlib != "" && filepath.Ext(cfg.Stdlib) != ".wv" {
		return fmt.Errorf("stdlib %q must be a .wv file", cfg.Stdlib)
	}
	if cfg.Build.PrunePassLimit < 1 {
		return fmt.Errorf("build.prune_pass_limit must be >= 1, got %d", cfg.Build.PrunePassLimit)
	}
	for i, pattern := range cfg.Build.Retain {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("build.retain[%d] %q is not a valid pattern: %w", i, pattern, err)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if cfg.Output.Path == "" {
		return fmt.Errorf("output.path must not be empty")
	}
	seen := map[string]string{}
	for _, target := range []struct{ key, path string }{
		{"output.path", cfg.Output.Path},
		{"output.disasm", cfg.Output.Disasm},
		{"output.symbol_map", cfg.Output.SymbolMap},
	} {
		if target.path == "" {
			continue
		}
		clean := filepath.Clean(target.path)
		if prev, ok := seen[clean]; ok {
			return fmt.Errorf("output conflict: %s and %s share the same path %q", prev, target.key, target.path)
		}
		seen[clean] = target.key
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 || cfg.Watch.Debounce > time.Minute {
		return fmt.Errorf("watch.debounce must be between 0 and 1m, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRebuildsPerSecond < 0 {
		return fmt.Errorf("watch.max_rebuilds_per_second must not be negative")
	}
	for i, dir := range cfg.Watch.ExcludeDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("watch.exclude_dirs[%d] must not be empty", i)
		}
		if _, err := glob.Compile(dir); err != nil {
			return fmt.Errorf("watch.exclude_dirs[%d] %q is not a valid pattern: %w", i, dir, err)
		}
	}
	return nil
}

// Validate runs every check and returns all failures instead of the first.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{validateVersion, validateBuild, validateOutput, validateWatch} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
