package config

import (
	"testing"
)

func TestValidate_CollectsEveryFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = 2
	cfg.Entry = "main.txt"
	cfg.Watch.ExcludeDirs = []string{""}

	errs := Validate(cfg)
	if len(errs) != 3 {
		t.Fatalf("Expected 3 errors, got %v", errs)
	}
}

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	if errs := Validate(DefaultConfig()); len(errs) != 0 {
		t.Errorf("default config failed validation: %v", errs)
	}
}
