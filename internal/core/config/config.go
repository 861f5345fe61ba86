package config

import (
	"time"

	"weave/internal/engine/linker"
)

// Config is the content of weave.toml.
type Config struct {
	Version       int           `toml:"version"`
	Entry         string        `toml:"entry"`
	Stdlib        string        `toml:"stdlib"`
	Build         Build         `toml:"build"`
	Output        Output        `toml:"output"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Build struct {
	Mangle            bool     `toml:"mangle"`
	RemoveDeadCode    bool     `toml:"remove_dead_code"`
	PrunePassLimit    int      `toml:"prune_pass_limit"`
	IncludeEnumLookup *bool    `toml:"include_enum_lookup"`
	AnalyseAst        bool     `toml:"analyse_ast"`
	AnalyseSymbols    bool     `toml:"analyse_symbols"`
	Retain            []string `toml:"retain"`
}

type Output struct {
	Path      string `toml:"path"`
	Disasm    string `toml:"disasm"`
	SymbolMap string `toml:"symbol_map"`
}

type Watch struct {
	Debounce             time.Duration `toml:"debounce"`
	ExcludeDirs          []string      `toml:"exclude_dirs"`
	MaxRebuildsPerSecond float64       `toml:"max_rebuilds_per_second"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// DefaultConfig returns the configuration used when no weave.toml exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LinkerOptions maps the [build] section and the stdlib override onto the
// options of one build.
func (c *Config) LinkerOptions() linker.Options {
	return linker.Options{
		Mangle:            c.Build.Mangle,
		RemoveDeadCode:    c.Build.RemoveDeadCode,
		PrunePassLimit:    c.Build.PrunePassLimit,
		AnalyseAst:        c.Build.AnalyseAst,
		AnalyseSymbols:    c.Build.AnalyseSymbols,
		IncludeEnumLookup: c.Build.IncludeEnumLookup == nil || *c.Build.IncludeEnumLookup,
		Retain:            append([]string(nil), c.Build.Retain...),
		StdPath:           c.Stdlib,
	}
}
