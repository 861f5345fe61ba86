package config

import (
	"os"
	"strings"
	"time"

	"weave/internal/engine/linker"

	"github.com/BurntSushi/toml"
)

const DefaultFile = "weave.toml"

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateBuild(&cfg); err != nil {
		return nil, err
	}
	if err := validateOutput(&cfg); err != nil {
		return nil, err
	}
	if err := validateWatch(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault loads path, falling back to DefaultConfig when the file does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if strings.TrimSpace(cfg.Entry) == "" {
		cfg.Entry = "main.wv"
	}

	if cfg.Build.PrunePassLimit <= 0 {
		cfg.Build.PrunePassLimit = linker.DefaultPrunePassLimit
	}
	if cfg.Build.IncludeEnumLookup == nil {
		enabled := true
		cfg.Build.IncludeEnumLookup = &enabled
	}

	if strings.TrimSpace(cfg.Output.Path) == "" {
		cfg.Output.Path = "out.wvb"
	}
	if strings.TrimSpace(cfg.Output.SymbolMap) == "" {
		cfg.Output.SymbolMap = "data/symbols.db"
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if len(cfg.Watch.ExcludeDirs) == 0 {
		cfg.Watch.ExcludeDirs = []string{".git"}
	}
	if cfg.Watch.MaxRebuildsPerSecond == 0 {
		cfg.Watch.MaxRebuildsPerSecond = 2
	}
}

func normalize(cfg *Config) {
	cfg.Entry = strings.TrimSpace(cfg.Entry)
	cfg.Stdlib = strings.TrimSpace(cfg.Stdlib)
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
	cfg.Output.Disasm = strings.TrimSpace(cfg.Output.Disasm)
	cfg.Output.SymbolMap = strings.TrimSpace(cfg.Output.SymbolMap)
	cfg.Observability.MetricsAddr = strings.TrimSpace(cfg.Observability.MetricsAddr)
	cfg.Observability.OTLPEndpoint = strings.TrimSpace(cfg.Observability.OTLPEndpoint)

	if len(cfg.Build.Retain) == 0 {
		return
	}
	normalized := make([]string, 0, len(cfg.Build.Retain))
	for _, pattern := range cfg.Build.Retain {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		normalized = append(normalized, pattern)
	}
	cfg.Build.Retain = normalized
}
