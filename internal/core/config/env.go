package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: WEAVE_[SECTION]_[KEY] (e.g., WEAVE_OBSERVABILITY_METRICS_ADDR).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Entry, "WEAVE_ENTRY")
	setEnvString(&cfg.Stdlib, "WEAVE_STDLIB")

	// Build
	setEnvBool(&cfg.Build.Mangle, "WEAVE_BUILD_MANGLE")
	setEnvBool(&cfg.Build.RemoveDeadCode, "WEAVE_BUILD_REMOVE_DEAD_CODE")
	setEnvInt(&cfg.Build.PrunePassLimit, "WEAVE_BUILD_PRUNE_PASS_LIMIT")

	// Output
	setEnvString(&cfg.Output.Path, "WEAVE_OUTPUT_PATH")
	setEnvString(&cfg.Output.Disasm, "WEAVE_OUTPUT_DISASM")
	setEnvString(&cfg.Output.SymbolMap, "WEAVE_OUTPUT_SYMBOL_MAP")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "WEAVE_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRebuildsPerSecond, "WEAVE_WATCH_MAX_REBUILDS_PER_SECOND")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "WEAVE_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "WEAVE_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
