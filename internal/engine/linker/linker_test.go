package linker

import (
	"context"
	"errors"
	"strings"
	"testing"

	coreerrors "weave/internal/core/errors"
	"weave/internal/engine/emit"
	"weave/internal/engine/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, files MapLoader, entry string, opts Options) *Result {
	t.Helper()
	res, err := New(files, opts).Build(context.Background(), entry)
	require.NoError(t, err)
	return res
}

func disasm(t *testing.T, code emit.Code) string {
	t.Helper()
	text, err := emit.Disassemble(code)
	require.NoError(t, err)
	return text
}

func namespaceIDs(res *Result) []string {
	ids := make([]string, 0, len(res.Namespaces))
	for _, ns := range res.Namespaces {
		ids = append(ids, ns.ID)
	}
	return ids
}

func namespaceCode(t *testing.T, res *Result, id string) string {
	t.Helper()
	for _, ns := range res.Namespaces {
		if ns.ID == id {
			return disasm(t, ns.Code)
		}
	}
	t.Fatalf("namespace %s not emitted; have %v", id, namespaceIDs(res))
	return ""
}

func TestBuild_ForeignReadEmitsTargetID(t *testing.T) {
	files := MapLoader{
		"/src/x.wv": "import y from \"y.wv\"\n$print(y.foo)\n$print(y.foo + 1)\n",
		"/src/y.wv": "let foo = 1\n",
	}
	res := mustBuild(t, files, "/src/x.wv", Options{})

	assert.Equal(t, []string{"std", "y", "x"}, namespaceIDs(res))
	assert.Equal(t, 2, strings.Count(namespaceCode(t, res, "x"), `"y:foo"`))
	assert.Contains(t, namespaceCode(t, res, "y"), `(define "y:foo" 1)`)
}

func TestBuild_EnumLookupTable(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "enum Color { RED, GREEN = 5, BLUE }\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{IncludeEnumLookup: true})

	assert.Equal(t, []EnumEntry{
		{Name: "main:Color.RED", Value: 1},
		{Name: "main:Color.GREEN", Value: 5},
		{Name: "main:Color.BLUE", Value: 6},
	}, res.EnumTable)
	assert.True(t, strings.HasPrefix(disasm(t, res.Code),
		"(enum \"main:Color.RED\" 1)\n(enum \"main:Color.GREEN\" 5)\n(enum \"main:Color.BLUE\" 6)"))
}

func TestBuild_SameShortNameGetsSuffix(t *testing.T) {
	files := MapLoader{
		"/src/main.wv":  "import a from \"one/a.wv\"\nimport b from \"two/a.wv\"\n$print(a.v + b.v)\n",
		"/src/one/a.wv": "let v = 1\n",
		"/src/two/a.wv": "let v = 2\n",
	}
	for i := 0; i < 3; i++ {
		res := mustBuild(t, files, "/src/main.wv", Options{})
		assert.Equal(t, []string{"std", "a", "a_2", "main"}, namespaceIDs(res))
		code := namespaceCode(t, res, "main")
		assert.Contains(t, code, `(load "a:v")`)
		assert.Contains(t, code, `(load "a_2:v")`)
	}
}

func TestBuild_DiscoveryOrderAndSharing(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "import b from \"b.wv\"\nimport c from \"c.wv\"\nimport again from \"./b.wv\"\n",
		"/src/b.wv":    "import d from \"d.wv\"\n",
		"/src/c.wv":    "let c = 1\n",
		"/src/d.wv":    "import main from \"main.wv\"\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{})
	assert.Equal(t, []string{"std", "d", "b", "c", "main"}, namespaceIDs(res))

	locations := make([]string, 0, len(res.Namespaces))
	for _, ns := range res.Namespaces {
		locations = append(locations, ns.Location)
	}
	assert.Equal(t, []string{"/src/d.wv", "/src/b.wv", "/src/c.wv", "/src/main.wv"}, locations[1:])
}

func TestBuild_IDsFollowFirstOpen(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "import b from \"lib/x.wv\"\nimport c from \"x.wv\"\n",
		"/src/lib/x.wv": "import y from \"../y.wv\"\n",
		"/src/y.wv":     "let y = 1\n",
		"/src/x.wv":     "let x = 1\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{})
	assert.Equal(t, []string{"std", "y", "x", "x_2", "main"}, namespaceIDs(res))
	assert.Equal(t, "/src/lib/x.wv", res.Namespaces[2].Location)
	assert.Equal(t, "/src/x.wv", res.Namespaces[3].Location)
}

func TestBuild_ImportsAreEmittedBeforeImporters(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "import y from \"y.wv\"\n$print(y.foo)\n",
		"/src/y.wv":    "import z from \"z.wv\"\nlet foo = z.bar\n",
		"/src/z.wv":    "let bar = 1\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{})

	code := disasm(t, res.Code)
	defineBar := strings.Index(code, `(define "z:bar" 1)`)
	readBar := strings.Index(code, `(load "z:bar")`)
	defineFoo := strings.Index(code, `(define "y:foo"`)
	readFoo := strings.Index(code, `(load "y:foo")`)
	require.True(t, defineBar >= 0 && readBar >= 0 && defineFoo >= 0 && readFoo >= 0, code)
	assert.Less(t, defineBar, readBar)
	assert.Less(t, defineFoo, readFoo)
}

func TestBuild_UnresolvedForeignSymbol(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "import y from \"y.wv\"\n$print(y.missing)\n",
		"/src/y.wv":    "let foo = 1\n",
	}
	_, err := New(files, Options{}).Build(context.Background(), "/src/main.wv")
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeUnresolvedSymbol))
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "namespace=y")

	var diag *source.Error
	require.True(t, errors.As(err, &diag))
	assert.Contains(t, diag.Render(), "/src/main.wv:2:8")
}

func TestBuild_UnknownStandardName(t *testing.T) {
	files := MapLoader{"/src/main.wv": "$print(nowhere)\n"}
	_, err := New(files, Options{}).Build(context.Background(), "/src/main.wv")
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeUnresolvedSymbol))
	assert.Contains(t, err.Error(), "phase=link")
}

func TestBuild_MissingImport(t *testing.T) {
	files := MapLoader{"/src/main.wv": "import gone from \"gone.wv\"\n"}
	_, err := New(files, Options{}).Build(context.Background(), "/src/main.wv")
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeImportFailed))
	assert.Contains(t, err.Error(), "path=/src/gone.wv")
	assert.Contains(t, err.Error(), "phase=discovery")
}

func TestBuild_ParseErrorIsDiagnostic(t *testing.T) {
	files := MapLoader{"/src/main.wv": "let x = \n"}
	_, err := New(files, Options{}).Build(context.Background(), "/src/main.wv")
	require.Error(t, err)
	var diag *source.Error
	require.True(t, errors.As(err, &diag))
	assert.Contains(t, diag.Render(), "^")
}

func TestBuild_DuplicateExplicitEnumValues(t *testing.T) {
	files := MapLoader{
		"/src/main.wv":  "import o from \"other.wv\"\nenum A { X = 3 }\n",
		"/src/other.wv": "enum B { Y = 3 }\n",
	}
	_, err := New(files, Options{}).Build(context.Background(), "/src/main.wv")
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeConflict))
}

func TestBuild_EnumValuesAreProgramWide(t *testing.T) {
	files := MapLoader{
		"/src/main.wv":  "import o from \"other.wv\"\nenum A { P, Q }\n",
		"/src/other.wv": "enum B { R, S = 2, T }\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{IncludeEnumLookup: true})

	seen := map[int64]string{}
	for _, e := range res.EnumTable {
		if prev, dup := seen[e.Value]; dup {
			t.Fatalf("%s and %s share value %d", prev, e.Name, e.Value)
		}
		seen[e.Value] = e.Name
	}
	assert.Equal(t, []EnumEntry{
		{Name: "other:B.R", Value: 4},
		{Name: "other:B.S", Value: 2},
		{Name: "other:B.T", Value: 5},
		{Name: "main:A.P", Value: 1},
		{Name: "main:A.Q", Value: 3},
	}, res.EnumTable)
}

func TestBuild_EnumMembersEmitValues(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "import y from \"y.wv\"\nenum Mode { A, B }\n$print(Mode.B)\n$print(y.Kind.Y)\n",
		"/src/y.wv":    "enum Kind { X = 10, Y }\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{IncludeEnumLookup: true, RemoveDeadCode: true})

	code := namespaceCode(t, res, "main")
	assert.Contains(t, code, "(syscall print 2)")
	assert.Contains(t, code, "(syscall print 11)")
	assert.Equal(t, []EnumEntry{
		{Name: "y:Kind.Y", Value: 11},
		{Name: "main:Mode.B", Value: 2},
	}, res.EnumTable)
}

func TestBuild_DeadCodeRemoval(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "let unused = 1\nlet used = 2\nfn helper() { return used }\n$print(used)\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{RemoveDeadCode: true})

	code := namespaceCode(t, res, "main")
	assert.NotContains(t, code, `"main:unused"`)
	assert.NotContains(t, code, `"main:helper"`)
	assert.Contains(t, code, `(define "main:used" 2)`)
	assert.Empty(t, namespaceCode(t, res, "std"), "nothing in the standard library is read")
}

func TestBuild_PruneReachesFixpoint(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "let a = 1\nlet b = a\nlet c = b\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{RemoveDeadCode: true})
	assert.Equal(t, 4, res.PrunePasses)
	assert.Empty(t, namespaceCode(t, res, "main"))

	limited := mustBuild(t, files, "/src/main.wv", Options{RemoveDeadCode: true, PrunePassLimit: 2})
	assert.Equal(t, 2, limited.PrunePasses)
	assert.Contains(t, namespaceCode(t, limited, "main"), `"main:a"`)
}

func TestBuild_ConstantConditionFolding(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "let debug = false\nif debug { $print(\"on\") } else { $print(\"off\") }\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{RemoveDeadCode: true})

	code := namespaceCode(t, res, "main")
	assert.NotContains(t, code, `"on"`)
	assert.Contains(t, code, `"off"`)
	assert.NotContains(t, code, `"main:debug"`)

	kept := mustBuild(t, files, "/src/main.wv", Options{})
	assert.Contains(t, namespaceCode(t, kept, "main"), `"on"`)
}

func TestBuild_ReassignedConditionIsKept(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "let debug = false\nfn enable() { debug = true }\nenable()\nif debug { $print(\"on\") }\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{RemoveDeadCode: true})
	assert.Contains(t, namespaceCode(t, res, "main"), `"on"`)
}

func TestBuild_MangleIsDeterministic(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "import u from \"util.wv\"\nlet total = u.add(1, 2)\nlet o = {first: total, second: 2}\n$print(o.first)\n",
		"/src/util.wv": "fn add(a, b) { return a + b }\n",
	}
	first := mustBuild(t, files, "/src/main.wv", Options{Mangle: true})
	second := mustBuild(t, files, "/src/main.wv", Options{Mangle: true})

	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Symbols, second.Symbols)
	assert.NotEmpty(t, first.Symbols)

	code := disasm(t, first.Code)
	assert.NotContains(t, code, `"main:`)
	assert.NotContains(t, code, `"util:add"`)
	assert.NotContains(t, code, `"first"`)
	assert.Contains(t, code, `"length"`, "retained by the standard library")
	assert.Equal(t, int64(0), first.Symbols[0].Code)
}

func TestBuild_MangleCountsEveryRead(t *testing.T) {
	files := MapLoader{
		"/lib/core.wv": "fn print(v) { return v }\n",
		"/src/main.wv": "import y from \"y.wv\"\n$print(y.foo)\n$print(y.foo)\n$print(y.foo)\nprint(1)\n",
		"/src/y.wv":    "let foo = 1\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{Mangle: true, StdPath: "/lib/core.wv"})

	require.NotEmpty(t, res.Symbols)
	assert.Equal(t, "y", res.Symbols[0].Namespace)
	assert.Equal(t, "foo", res.Symbols[0].Name)
	assert.Equal(t, int64(0), res.Symbols[0].Code)
	assert.Equal(t, 4, res.Symbols[0].Uses)

	for _, entry := range res.Symbols {
		assert.NotEqual(t, "main", entry.Namespace, "main defines nothing, got %+v", entry)
		if entry.Namespace == "core" && entry.Name == "print" {
			assert.Equal(t, 2, entry.Uses)
		}
	}
	assert.Contains(t, namespaceCode(t, res, "main"), "(load 0)")
	assert.Contains(t, namespaceCode(t, res, "y"), "(define 0 1)")
}

func TestBuild_StoreToPrunedBinding(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "let x = 1\nfn f() { x = $clock() }\nf()\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{RemoveDeadCode: true})

	code := namespaceCode(t, res, "main")
	assert.NotContains(t, code, `"main:x"`)
	assert.Contains(t, code, "(syscall clock)")
	assert.Contains(t, code, `(define "main:f"`)
}

func TestBuild_RetainedNamesSurviveMangling(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "retain name\nlet o = {name: 1, other: 2, keepMe: 3}\n$print(o.name)\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{Mangle: true, Retain: []string{"keep*"}})

	code := namespaceCode(t, res, "main")
	assert.Contains(t, code, `"name"`)
	assert.Contains(t, code, `"keepMe"`)
	assert.NotContains(t, code, `"other"`)
}

func TestBuild_InvalidRetainPattern(t *testing.T) {
	files := MapLoader{"/src/main.wv": ""}
	_, err := New(files, Options{Retain: []string{"["}}).Build(context.Background(), "/src/main.wv")
	require.Error(t, err)
	assert.True(t, coreerrors.IsCode(err, coreerrors.CodeValidationError))
}

func TestBuild_Reports(t *testing.T) {
	files := MapLoader{"/src/main.wv": "let x = 1\n$print(x)\n"}
	res := mustBuild(t, files, "/src/main.wv", Options{AnalyseAst: true, AnalyseSymbols: true})

	require.Len(t, res.Reports, 4)
	assert.Contains(t, res.Reports[2], "namespace main")
	assert.Contains(t, res.Reports[3], "1 in scope")
	assert.Contains(t, res.Reports[3], "- main:x defined=true truthy=true\n    read 1x at 2:8")
}

func TestBuild_EnumTableReport(t *testing.T) {
	files := MapLoader{
		"/src/main.wv": "enum Mode { A, B }\n$print(Mode.B)\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{
		IncludeEnumLookup: true,
		RemoveDeadCode:    true,
		AnalyseSymbols:    true,
	})

	n := len(res.Reports)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, []string{
		"unused enum entry: main:Mode.A",
		"enum entry registered: main:Mode.B",
	}, res.Reports[n-2:])

	quiet := mustBuild(t, files, "/src/main.wv", Options{IncludeEnumLookup: true, RemoveDeadCode: true})
	assert.Empty(t, quiet.Reports)
}

func TestBuild_ImportWithoutAlias(t *testing.T) {
	files := MapLoader{
		"/src/main.wv":  "import \"setup.wv\"\n$print(1)\n",
		"/src/setup.wv": "$print(\"ready\")\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{})
	assert.Equal(t, []string{"std", "setup", "main"}, namespaceIDs(res))
	assert.Contains(t, namespaceCode(t, res, "setup"), `"ready"`)
}

func TestBuild_CustomStandardLibrary(t *testing.T) {
	files := MapLoader{
		"/lib/core.wv": "fn hello() { return 1 }\n",
		"/src/main.wv": "hello()\n",
	}
	res := mustBuild(t, files, "/src/main.wv", Options{StdPath: "/lib/core.wv"})
	assert.Equal(t, []string{"core", "main"}, namespaceIDs(res))
	assert.Contains(t, namespaceCode(t, res, "main"), `(load "core:hello")`)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(MapLoader{"/src/main.wv": ""}, Options{}).Build(ctx, "/src/main.wv")
	require.ErrorIs(t, err, context.Canceled)
}
