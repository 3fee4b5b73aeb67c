package oosikle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Zaphodious/oosikle-app/config"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/Zaphodious/oosikle-app/log"
	"github.com/Zaphodious/oosikle-app/shrine"
)

func testConfig(catalog string) *config.Config {
	cfg := config.Default()
	cfg.Catalog = catalog
	return cfg
}

func TestOpen_ImportAndBrowse(t *testing.T) {
	ctx := t.Context()

	src := t.TempDir()
	for name, content := range map[string]string{
		"pico8/jelpi.p8.png":           "jelpi",
		"pico8/celeste/celeste.p8.png": "celeste",
		"notes.md":                     "notes",
	} {
		p := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	lib, err := Open(ctx, testConfig("sqlite://"+filepath.Join(t.TempDir(), "library.db")), WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer lib.Close()

	session, count, err := lib.Import(ctx, src)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 imported files, got %d", count)
	}

	dirs, err := lib.GetDirectoriesAt(ctx, "")
	if err != nil {
		t.Fatalf("GetDirectoriesAt failed: %v", err)
	}
	if len(dirs) != 1 || dirs[0] != session+"/" {
		t.Errorf("Expected only the session directory, got %v", dirs)
	}

	tree, err := lib.GetDirTreeAt(ctx, session)
	if err != nil {
		t.Fatalf("GetDirTreeAt failed: %v", err)
	}
	item, err := tree.GetAtPath("pico8/celeste/celeste.p8.png")
	if err != nil {
		t.Fatalf("GetAtPath failed: %v", err)
	}
	if item.File.SizeBytes != int64(len("celeste")) {
		t.Errorf("Expected size %d, got %d", len("celeste"), item.File.SizeBytes)
	}

	matches, err := lib.Glob(ctx, session, "**/*.p8.png")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Expected 2 cartridges, got %d", len(matches))
	}
}

func TestOpen_Memory(t *testing.T) {
	lib, err := Open(t.Context(), testConfig(":memory:"), WithLogger(log.Discard()), WithLabel("scratch"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if lib.Handle().Label() != "scratch" {
		t.Errorf("Expected shrine label 'scratch', got '%s'", lib.Handle().Label())
	}

	root, err := lib.GetRoot(t.Context())
	if err != nil {
		t.Fatalf("GetRoot failed: %v", err)
	}
	if root.Len() != 0 {
		t.Errorf("Expected empty catalog, got %d files", root.Len())
	}

	lib.Close()
	if _, err := lib.GetRoot(t.Context()); !errors.Is(err, shrine.ErrActorUnavailable) {
		t.Errorf("Expected ErrActorUnavailable after Close, got %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := t.Context()

	if _, err := Open(ctx, testConfig("ftp://example.com"), WithLogger(log.Discard())); !errors.Is(err, data.ErrUnknownProtocol) {
		t.Errorf("Expected ErrUnknownProtocol, got %v", err)
	}

	missing := filepath.Join(t.TempDir(), "missing", "dir", "library.db")
	if _, err := Open(ctx, testConfig("sqlite://"+missing), WithLogger(log.Discard())); !errors.Is(err, shrine.ErrActorUnavailable) {
		t.Errorf("Expected ErrActorUnavailable for an unopenable catalog, got %v", err)
	}

	cfg := testConfig(":memory:")
	cfg.QueueCapacity = -1
	if _, err := Open(ctx, cfg, WithLogger(log.Discard())); err == nil {
		t.Error("Expected invalid config to be rejected")
	}
}
