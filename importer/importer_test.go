package importer

import (
	"context"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/Zaphodious/oosikle-app/catalog"
	"github.com/Zaphodious/oosikle-app/catalog/memory"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/Zaphodious/oosikle-app/log"
	"github.com/Zaphodious/oosikle-app/shrine"
	"github.com/zeebo/blake3"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	return root
}

var library = map[string]string{
	"readme.md":                    "# library\n",
	"pico8/jelpi.p8.png":           "jelpi",
	"pico8/celeste/celeste.p8.png": "celeste",
}

func TestScan(t *testing.T) {
	root := writeTree(t, library)
	if err := os.Symlink(filepath.Join(root, "readme.md"), filepath.Join(root, "link.md")); err != nil {
		t.Fatalf("Symlink failed: %v", err)
	}

	m, err := Scan(t.Context(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	expected := []string{"pico8/celeste/celeste.p8.png", "pico8/jelpi.p8.png", "readme.md"}
	if !slices.Equal(m.Items, expected) {
		t.Errorf("Expected items %v, got %v", expected, m.Items)
	}
	if !filepath.IsAbs(m.Root) {
		t.Errorf("Expected absolute root, got '%s'", m.Root)
	}
}

func TestManifest_Records(t *testing.T) {
	ctx := t.Context()
	root := writeTree(t, library)

	m, err := Scan(ctx, root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	records, err := m.Records(ctx, "session")
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	byName := make(map[string]*data.FileRecord)
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			t.Errorf("Expected valid record, got %v", err)
		}
		byName[rec.Name] = rec
	}

	celeste := byName["celeste.p8.png"]
	if celeste == nil {
		t.Fatal("Expected record for celeste.p8.png")
	}
	if celeste.VfsPath != "session/pico8/celeste/" {
		t.Errorf("Expected vfs path 'session/pico8/celeste/', got '%s'", celeste.VfsPath)
	}
	if celeste.ExtensionTag != "p8.png" {
		t.Errorf("Expected extension tag 'p8.png', got '%s'", celeste.ExtensionTag)
	}
	if celeste.Encoding != data.EncodingBinary {
		t.Errorf("Expected binary encoding, got '%s'", celeste.Encoding)
	}
	if celeste.SizeBytes != int64(len("celeste")) {
		t.Errorf("Expected size %d, got %d", len("celeste"), celeste.SizeBytes)
	}
	sum := blake3.Sum256([]byte("celeste"))
	if celeste.Hash != hex.EncodeToString(sum[:]) {
		t.Errorf("Expected blake3 hash of content, got '%s'", celeste.Hash)
	}
	if celeste.DirPath != filepath.Join(m.Root, "pico8", "celeste") {
		t.Errorf("Expected dir path on disk, got '%s'", celeste.DirPath)
	}

	if readme := byName["readme.md"]; readme == nil || readme.VfsPath != "session/" {
		t.Errorf("Expected readme.md directly in 'session/', got %+v", readme)
	}
}

func TestManifest_RecordsSkipsUnreadable(t *testing.T) {
	root := writeTree(t, library)
	m := &Manifest{Root: root, Items: []string{"readme.md", "vanished.txt"}}

	records, err := m.Records(t.Context(), "s")
	if len(records) != 1 {
		t.Errorf("Expected 1 readable record, got %d", len(records))
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected missing file to be reported, got %v", err)
	}
}

func TestCommonRoot(t *testing.T) {
	tests := []struct {
		name     string
		paths    []string
		expected string
	}{
		{name: "empty", paths: nil, expected: ""},
		{name: "single file", paths: []string{"/lib/pico8/a.png"}, expected: "/lib/pico8"},
		{name: "siblings", paths: []string{"/lib/pico8/a.png", "/lib/pico8/b.png"}, expected: "/lib/pico8"},
		{name: "nested", paths: []string{"/lib/pico8/a.png", "/lib/pico8/celeste/c.png", "/lib/beta/x.md"}, expected: "/lib"},
		{name: "shared name prefix", paths: []string{"/lib/pico8/a.png", "/lib/pico80/b.png"}, expected: "/lib"},
		{name: "disjoint", paths: []string{"/a/x.txt", "/b/y.txt"}, expected: "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CommonRoot(tt.paths); got != tt.expected {
				t.Errorf("CommonRoot(%v) = '%s', want '%s'", tt.paths, got, tt.expected)
			}
		})
	}
}

func TestNewManifest(t *testing.T) {
	root := writeTree(t, library)

	m, err := NewManifest([]string{
		filepath.Join(root, "pico8", "jelpi.p8.png"),
		filepath.Join(root, "pico8", "celeste", "celeste.p8.png"),
	})
	if err != nil {
		t.Fatalf("NewManifest failed: %v", err)
	}

	if m.Root != filepath.Join(root, "pico8") {
		t.Errorf("Expected root '%s', got '%s'", filepath.Join(root, "pico8"), m.Root)
	}
	expected := []string{"celeste/celeste.p8.png", "jelpi.p8.png"}
	if !slices.Equal(m.Items, expected) {
		t.Errorf("Expected items %v, got %v", expected, m.Items)
	}
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID()
	if id == "" {
		t.Fatal("Expected a session id")
	}
	if strings.ContainsAny(id, "+/=") {
		t.Errorf("Expected URL safe session id, got '%s'", id)
	}
}

func TestImport(t *testing.T) {
	ctx := t.Context()
	root := writeTree(t, library)

	h, g, err := shrine.Build("import-test", func() (catalog.Store, error) {
		return memory.New(), nil
	}, shrine.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer g.Close()

	m, err := Scan(ctx, root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	records, err := m.Records(ctx, "session")
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}

	count, err := Import(ctx, h, records, WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 inserted records, got %d", count)
	}

	dirs, err := shrine.Send(ctx, h, func(store catalog.Store) ([]string, error) {
		return store.DirectoriesUnder(ctx, "session/")
	})
	if err != nil {
		t.Fatalf("DirectoriesUnder failed: %v", err)
	}
	if !slices.Equal(dirs, []string{"session/pico8/"}) {
		t.Errorf("Expected [session/pico8/], got %v", dirs)
	}

	// Importing the same records again collides on every path
	count, err = Import(ctx, h, records, WithLogger(log.Discard()))
	if count != 0 {
		t.Errorf("Expected no inserts on re-import, got %d", count)
	}
	if !errors.Is(err, data.ErrExist) {
		t.Errorf("Expected ErrExist on re-import, got %v", err)
	}
}

func TestImport_ActorUnavailable(t *testing.T) {
	h, g, err := shrine.Build("import-closed", func() (catalog.Store, error) {
		return memory.New(), nil
	}, shrine.WithLogger(log.Discard()))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	g.Close()

	_, err = Import(t.Context(), h, []*data.FileRecord{{Name: "a.txt"}}, WithLogger(log.Discard()))
	if !errors.Is(err, shrine.ErrActorUnavailable) {
		t.Errorf("Expected ErrActorUnavailable, got %v", err)
	}
}

// stallingStore cancels the import once stallOn is inserted and then holds the
// worker until release is closed.
type stallingStore struct {
	catalog.Store
	stallOn string
	stalled context.CancelFunc
	release <-chan struct{}
}

func (s *stallingStore) InsertFile(ctx context.Context, rec *data.FileRecord) error {
	if err := s.Store.InsertFile(ctx, rec); err != nil {
		return err
	}
	if rec.Name == s.stallOn {
		s.stalled()
		<-s.release
	}
	return nil
}

func TestImport_CountsInsertsQueuedBeforeFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	release := make(chan struct{})

	// An unbuffered queue makes every raw send wait for the worker
	h, g, err := shrine.Build("import-partial", func() (catalog.Store, error) {
		return &stallingStore{Store: memory.New(), stallOn: "b.txt", stalled: cancel, release: release}, nil
	}, shrine.WithLogger(log.Discard()), shrine.WithQueueCapacity(0))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer g.Close()

	records := []*data.FileRecord{{Name: "a.txt"}, {Name: "b.txt"}, {Name: "c.txt"}}
	count, err := Import(ctx, h, records, WithLogger(log.Discard()))
	close(release)

	if !errors.Is(err, shrine.ErrActorUnavailable) || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected a cancelled ErrActorUnavailable, got %v", err)
	}
	// b.txt is still being inserted when Import gives up
	if count != 1 {
		t.Errorf("Expected 1 inserted record, got %d", count)
	}

	files, err := shrine.Send(t.Context(), h, func(store catalog.Store) ([]*data.FileRecord, error) {
		return store.FilesAt(t.Context(), "")
	})
	if err != nil {
		t.Fatalf("FilesAt failed: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected a.txt and b.txt in the catalog, got %d files", len(files))
	}
}
