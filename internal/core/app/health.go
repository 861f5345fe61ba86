package app

import (
	"context"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	// Last build
	if last, ok := s.app.LastUpdate(); !ok {
		status.Components["build"] = "pending"
	} else if last.Err != nil {
		status.Status = "degraded"
		status.Components["build"] = "failed: " + last.Err.Error()
	} else {
		status.Components["build"] = "ok (" + last.BuildID + ")"
	}

	// Symbol map
	switch {
	case s.app.symbols != nil:
		status.Components["symbol_map"] = "ok"
	case s.app.Config.Build.Mangle:
		status.Status = "degraded"
		status.Components["symbol_map"] = "missing but mangling is enabled"
	default:
		status.Components["symbol_map"] = "disabled"
	}

	// Watcher
	if s.app.activeWatcher != nil {
		status.Components["watcher"] = "ok"
	} else {
		status.Components["watcher"] = "idle"
	}

	return status
}

// BuildReport is the JSON view of the most recent build.
type BuildReport struct {
	BuildID    string   `json:"build_id,omitempty"`
	Changed    []string `json:"changed,omitempty"`
	Namespaces int      `json:"namespaces"`
	Bytes      int      `json:"bytes"`
	DurationMS int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}

func (s *HealthService) LastBuild() (BuildReport, bool) {
	last, ok := s.app.LastUpdate()
	if !ok {
		return BuildReport{}, false
	}
	report := BuildReport{
		BuildID:    last.BuildID,
		Changed:    last.Changed,
		Namespaces: last.Namespaces,
		Bytes:      last.Bytes,
		DurationMS: last.Duration.Milliseconds(),
	}
	if last.Err != nil {
		report.Error = last.Err.Error()
	}
	return report, true
}
