package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "weave/internal/core/app"
	"weave/internal/core/config"
	coreerrors "weave/internal/core/errors"
	"weave/internal/engine/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}
	return dir
}

func TestParseOptions_TracksExplicitFlags(t *testing.T) {
	opts, err := parseOptions([]string{"-mangle", "-enum-lookup=false", "-retain", "a, b*,", "src/app.wv"})
	require.NoError(t, err)

	assert.True(t, opts.set["mangle"])
	assert.True(t, opts.set["enum-lookup"])
	assert.False(t, opts.set["dce"])
	assert.Equal(t, int64(-1), opts.demangle)
	assert.Equal(t, []string{"src/app.wv"}, opts.args)
	assert.Equal(t, []string{"a", "b*"}, splitPatterns(opts.retain))
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Build.RemoveDeadCode = true
	cfg.Build.Retain = []string{"keep"}

	opts, err := parseOptions([]string{"-out", "bin/app.wvb", "-enum-lookup=false", "-retain", "api_*", "other.wv"})
	require.NoError(t, err)
	require.NoError(t, applyFlagOverrides(opts, cfg))

	assert.Equal(t, "other.wv", cfg.Entry)
	assert.Equal(t, "bin/app.wvb", cfg.Output.Path)
	assert.True(t, cfg.Build.RemoveDeadCode, "unset flags must not override the file")
	assert.False(t, *cfg.Build.IncludeEnumLookup)
	assert.Equal(t, []string{"keep", "api_*"}, cfg.Build.Retain)
}

func TestApplyFlagOverrides_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"Two entries", []string{"a.wv", "b.wv"}, "at most one entry"},
		{"Demangle in watch mode", []string{"-demangle", "3", "-watch"}, "cannot be combined"},
		{"Build id alone", []string{"-build-id", "x"}, "requires --demangle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseOptions(tt.args)
			require.NoError(t, err)
			err = applyFlagOverrides(opts, config.DefaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRun_BuildsProject(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"weave.toml": "entry = \"src/main.wv\"\n[output]\npath = \"build/app.wvb\"\n",
		"src/main.wv": "let unused = 1\n$print(\"hi\")\n",
	})

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", filepath.Join(dir, "weave.toml"), "-dce", "-disasm", "build/app.txt"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "built "+filepath.Join("build", "app.wvb"))
	listing, err := os.ReadFile(filepath.Join(dir, "build", "app.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(listing), `(pop (syscall print "hi"))`)
	assert.NotContains(t, string(listing), "main:unused")
}

func TestRun_ReportsDiagnostics(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"weave.toml": "",
		"main.wv":    "let x = \n",
	})

	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", filepath.Join(dir, "weave.toml")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "error")
	assert.Contains(t, stderr.String(), filepath.Join(dir, "main.wv")+":")
	assert.Contains(t, stderr.String(), "^")
}

func TestRun_Demangle(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"weave.toml": "stdlib = \"std.wv\"\n[build]\nmangle = true\n",
		"std.wv":     "let nothing = 0\n",
		"main.wv":    "let counter = 1\ncounter = counter + 1\n",
	})
	cfgPath := filepath.Join(dir, "weave.toml")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"-config", cfgPath}, &stdout, &stderr), stderr.String())

	stdout.Reset()
	code := run([]string{"-config", cfgPath, "-demangle", "0"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "0\tmain:counter\tnamespace\n", stdout.String())

	stdout.Reset()
	stderr.Reset()
	assert.Equal(t, 1, run([]string{"-config", cfgPath, "-demangle", "9999"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "NOT_FOUND")
}

func TestRun_MissingExplicitConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-config", filepath.Join(t.TempDir(), "absent.toml")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-version"}, &stdout, &stderr))
	assert.Equal(t, "weave v"+versionString+"\n", stdout.String())
}

func TestRenderError(t *testing.T) {
	unit := source.NewUnit("let a = 1\nlet b = c\n", "/src/main.wv")
	diag := source.Errorf(unit, 18, "undefined: c")

	wrapped := coreerrors.Newf(coreerrors.CodeUnresolvedSymbol, "c is not defined in namespace std")
	wrapped.Err = diag

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"Diagnostic", diag, []string{"error: ", "undefined: c", "/src/main.wv:2:9", "let b = c", "^"}},
		{"Domain with diagnostic", wrapped, []string{"error[UNRESOLVED_SYMBOL]: c is not defined", "/src/main.wv:2:9"}},
		{"Domain only", coreerrors.New(coreerrors.CodeImportFailed, "cannot load source"), []string{"error[IMPORT_FAILED]: ", "cannot load source"}},
		{"Plain", io.ErrUnexpectedEOF, []string{"error: ", "unexpected EOF"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderError(tt.err)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestObservabilityServer(t *testing.T) {
	app, err := coreapp.NewWithDependencies(config.DefaultConfig(), t.TempDir(), coreapp.Dependencies{})
	require.NoError(t, err)

	server := NewObservabilityServer("127.0.0.1:0", coreapp.NewHealthService(app))
	require.NoError(t, server.Start(context.Background()))
	defer server.Stop(context.Background())

	resp, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "weave_"), "metrics body lacks weave series")

	resp, err = http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"build":"pending"`)

	resp, err = http.Get("http://" + server.Addr() + "/build")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
