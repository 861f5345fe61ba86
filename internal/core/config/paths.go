package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ResolvedPaths holds every file path of the configuration made absolute
// against the directory the configuration file lives in.
type ResolvedPaths struct {
	Root      string
	Entry     string
	Stdlib    string
	Output    string
	Disasm    string
	SymbolMap string
}

func ResolvePaths(cfg *Config, root string) (ResolvedPaths, error) {
	if strings.TrimSpace(root) == "" {
		return ResolvedPaths{}, fmt.Errorf("root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return ResolvedPaths{}, err
	}

	resolved := ResolvedPaths{
		Root:      filepath.Clean(abs),
		Entry:     ResolveRelative(abs, cfg.Entry),
		Output:    ResolveRelative(abs, cfg.Output.Path),
		SymbolMap: ResolveRelative(abs, cfg.Output.SymbolMap),
	}
	if cfg.Stdlib != "" {
		resolved.Stdlib = ResolveRelative(abs, cfg.Stdlib)
	}
	if cfg.Output.Disasm != "" {
		resolved.Disasm = ResolveRelative(abs, cfg.Output.Disasm)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
