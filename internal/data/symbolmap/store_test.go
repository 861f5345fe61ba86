package symbolmap

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	coreerrors "weave/internal/core/errors"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "symbols.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndLookup(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Code: 0, Namespace: "main", Name: "count", Kind: "namespace", Uses: 4},
		{Code: 1, Name: "length", Kind: "property", Uses: 2},
	}
	if err := store.SaveBuild(Build{ID: "b1", Entry: "/src/main.wv", Timestamp: base}, entries); err != nil {
		t.Fatalf("save b1: %v", err)
	}
	if err := store.SaveBuild(Build{ID: "b2", Entry: "/src/main.wv", Timestamp: base.Add(time.Minute)}, entries[:1]); err != nil {
		t.Fatalf("save b2: %v", err)
	}

	latest, err := store.LatestBuild()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != "b2" || latest.SymbolCount != 1 || !latest.Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("latest = %+v", latest)
	}

	got, err := store.Lookup("b1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != ".length" || got.Kind != "property" || got.Uses != 2 {
		t.Errorf("lookup(b1, 1) = %+v", got)
	}

	got, err = store.Lookup("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "main:count" {
		t.Errorf("lookup(latest, 0) = %+v", got)
	}

	_, err = store.Lookup("", 1)
	if !coreerrors.IsCode(err, coreerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for a code missing from the latest build, got %v", err)
	}
	if !strings.Contains(err.Error(), "build_id=b2") {
		t.Errorf("error lacks build context: %v", err)
	}
}

func TestStore_SaveBuildReplaces(t *testing.T) {
	store := openStore(t)

	first := []Entry{{Code: 0, Namespace: "a", Name: "x", Kind: "namespace"}, {Code: 1, Namespace: "a", Name: "y", Kind: "namespace"}}
	if err := store.SaveBuild(Build{ID: "same"}, first); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveBuild(Build{ID: "same"}, first[1:]); err != nil {
		t.Fatal(err)
	}

	entries, err := store.Entries("same")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "y" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestStore_SaveBuildRejectsDuplicateCodes(t *testing.T) {
	store := openStore(t)

	dup := []Entry{{Code: 3, Namespace: "a", Name: "x"}, {Code: 3, Namespace: "a", Name: "y"}}
	if err := store.SaveBuild(Build{ID: "dup"}, dup); err == nil {
		t.Fatal("expected constraint error")
	}
	if _, err := store.LatestBuild(); !coreerrors.IsCode(err, coreerrors.CodeNotFound) {
		t.Errorf("failed save must roll back, got %v", err)
	}
}

func TestStore_EmptyBuildID(t *testing.T) {
	store := openStore(t)
	err := store.SaveBuild(Build{}, nil)
	if !coreerrors.IsCode(err, coreerrors.CodeValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStore_LatestBuildEmpty(t *testing.T) {
	store := openStore(t)
	_, err := store.LatestBuild()
	if !coreerrors.IsCode(err, coreerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestStore_Prune(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		entries := []Entry{{Code: 0, Namespace: "main", Name: id, Kind: "namespace"}}
		if err := store.SaveBuild(Build{ID: id, Timestamp: base.Add(time.Duration(i) * time.Hour)}, entries); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := store.Prune(1)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed %d builds, want 2", removed)
	}
	if entries, _ := store.Entries("old"); len(entries) != 0 {
		t.Errorf("entries of a pruned build survived: %+v", entries)
	}
	if latest, err := store.LatestBuild(); err != nil || latest.ID != "new" {
		t.Errorf("latest = %+v, %v", latest, err)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	store := openStore(t)
	if err := EnsureSchema(store.db); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	var version int
	if err := store.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

func TestEnsureSchema_RejectsNewerVersion(t *testing.T) {
	store := openStore(t)
	if _, err := store.db.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}
	err := EnsureSchema(store.db)
	if err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestOpen_RejectsDirectory(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error for a directory path")
	}
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for an empty path")
	}
}
