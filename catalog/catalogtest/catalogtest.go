// Package catalogtest provides the reference library fixture and a behavioural
// test suite every catalog.Store implementation is expected to pass.
package catalogtest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/Zaphodious/oosikle-app/catalog"
	"github.com/Zaphodious/oosikle-app/data"
)

// Fixture layout:
//
//	welcome.txt
//	alpha/readme.txt
//	alpha/only_one_file/something.png
//	beta/notes.md
//	beta/gamma/abook1.m4b
//	beta/gamma/abook2.m4b
//	beta/gamma/delta/cover.jpg
//	beta/gamma/epsilon/track01.mp3
//	mastersystem/alexkidd.sms
//	mastersystem/sonic.sms
//	pico8/{api,dots3d,hello,jelpi}.p8.png
//	pico8/manual.txt
//	pico8/celeste/{celeste,celeste2}.p8.png
var fixture = []struct {
	vfsPath, name string
	size          int64
}{
	{"", "welcome.txt", 112},
	{"alpha/", "readme.txt", 2048},
	{"alpha/only_one_file/", "something.png", 53211},
	{"beta/", "notes.md", 901},
	{"beta/gamma/", "abook1.m4b", 81239001},
	{"beta/gamma/", "abook2.m4b", 79110234},
	{"beta/gamma/delta/", "cover.jpg", 220113},
	{"beta/gamma/epsilon/", "track01.mp3", 4120331},
	{"mastersystem/", "alexkidd.sms", 131072},
	{"mastersystem/", "sonic.sms", 262144},
	{"pico8/", "api.p8.png", 18211},
	{"pico8/", "dots3d.p8.png", 21871},
	{"pico8/", "hello.p8.png", 9012},
	{"pico8/", "jelpi.p8.png", 30447},
	{"pico8/", "manual.txt", 3022},
	{"pico8/celeste/", "celeste.p8.png", 31977},
	{"pico8/celeste/", "celeste2.p8.png", 32410},
}

// FixtureLen is the number of records in Fixture.
var FixtureLen = len(fixture)

// Fixture returns fresh copies of the reference library records with stable IDs.
func Fixture() []*data.FileRecord {
	records := make([]*data.FileRecord, 0, len(fixture))
	for i, f := range fixture {
		ext := ""
		if dot := strings.Index(f.name, "."); dot >= 0 {
			ext = f.name[dot+1:]
		}

		rec := &data.FileRecord{
			ID:           fmt.Sprintf("%032x", i+1),
			Name:         f.name,
			SizeBytes:    f.size,
			Hash:         fmt.Sprintf("%064x", f.size),
			DirPath:      "/srv/library/" + f.vfsPath,
			ExtensionTag: ext,
			Encoding:     data.EncodingOf(f.name),
			VfsPath:      f.vfsPath,
		}
		if rec.Encoding == data.EncodingUTF8 {
			mediaType := "PLAINTEXT"
			rec.MediaTypeOverrideID = &mediaType
		}
		records = append(records, rec)
	}

	return records
}

// Seed inserts the fixture into store.
func Seed(ctx context.Context, store catalog.Store) error {
	for _, rec := range Fixture() {
		if err := store.InsertFile(ctx, rec); err != nil {
			return fmt.Errorf("failed to seed '%s': %w", rec.Key(), err)
		}
	}
	return nil
}

// RunStoreTests seeds an empty store returned by open and checks it against the
// catalog contract. The store is closed when the test ends.
func RunStoreTests(t *testing.T, open func(t *testing.T) catalog.Store) {
	ctx := t.Context()
	store := open(t)
	t.Cleanup(func() { store.Close(context.Background()) })

	if store.Name() == "" {
		t.Error("Expected store to have a name")
	}
	if err := Seed(ctx, store); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	t.Run("DirectoriesUnder", func(t *testing.T) {
		tests := []struct {
			prefix   string
			expected []string
		}{
			{"", []string{"alpha/", "beta/", "mastersystem/", "pico8/"}},
			{"beta/", []string{"beta/gamma/"}},
			{"beta/gamma/", []string{"beta/gamma/delta/", "beta/gamma/epsilon/"}},
			{"pico8/", []string{"pico8/celeste/"}},
			{"alpha/only_one_file/", nil},
			{"missing/", nil},
		}

		for _, tt := range tests {
			got, err := store.DirectoriesUnder(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("DirectoriesUnder(%q) failed: %v", tt.prefix, err)
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("DirectoriesUnder(%q) = %v, want %v", tt.prefix, got, tt.expected)
			}
		}
	})

	t.Run("FilesAt", func(t *testing.T) {
		tests := []struct {
			dirpath string
			count   int
		}{
			{"", 1},
			{"alpha/", 1},
			{"alpha/only_one_file/", 1},
			{"beta/", 1},
			{"beta/gamma/", 2},
			{"pico8/", 5},
			{"pico8/celeste/", 2},
			{"missing/", 0},
		}

		for _, tt := range tests {
			got, err := store.FilesAt(ctx, tt.dirpath)
			if err != nil {
				t.Fatalf("FilesAt(%q) failed: %v", tt.dirpath, err)
			}
			if len(got) != tt.count {
				t.Errorf("FilesAt(%q) returned %d files, want %d", tt.dirpath, len(got), tt.count)
			}
			for _, rec := range got {
				if rec.VfsPath != tt.dirpath {
					t.Errorf("FilesAt(%q) returned record from '%s'", tt.dirpath, rec.VfsPath)
				}
			}
		}
	})

	t.Run("RecordsRoundTrip", func(t *testing.T) {
		want := make(map[string]*data.FileRecord)
		for _, rec := range Fixture() {
			want[rec.Key()] = rec
		}

		got, err := store.FilesAt(ctx, "beta/")
		if err != nil {
			t.Fatalf("FilesAt failed: %v", err)
		}
		for _, rec := range got {
			if !rec.Equal(want[rec.Key()]) {
				t.Errorf("Record '%s' = %+v, want %+v", rec.Key(), rec, want[rec.Key()])
			}
		}
	})

	if getter, ok := store.(catalog.FileGetter); ok {
		t.Run("GetFile", func(t *testing.T) {
			first := Fixture()[0]
			rec, err := getter.GetFile(ctx, first.ID)
			if err != nil {
				t.Fatalf("GetFile failed: %v", err)
			}
			if !rec.Equal(first) {
				t.Errorf("GetFile = %+v, want %+v", rec, first)
			}

			if _, err := getter.GetFile(ctx, "missing"); !errors.Is(err, data.ErrNotExist) {
				t.Errorf("Expected ErrNotExist, got %v", err)
			}
		})
	}

	if lister, ok := store.(catalog.SubtreeLister); ok {
		t.Run("FilesUnder", func(t *testing.T) {
			all, err := lister.FilesUnder(ctx, "")
			if err != nil {
				t.Fatalf("FilesUnder failed: %v", err)
			}
			if len(all) != FixtureLen {
				t.Errorf("Expected %d files under root, got %d", FixtureLen, len(all))
			}

			beta, err := lister.FilesUnder(ctx, "beta/")
			if err != nil {
				t.Fatalf("FilesUnder failed: %v", err)
			}
			if len(beta) != 5 {
				t.Errorf("Expected 5 files under beta/, got %d", len(beta))
			}
		})
	}

	t.Run("InsertFile", func(t *testing.T) {
		dup := Fixture()[3]
		dup.ID = ""
		if err := store.InsertFile(ctx, dup); !errors.Is(err, data.ErrExist) {
			t.Errorf("Expected ErrExist for duplicate path, got %v", err)
		}

		sameID := &data.FileRecord{ID: Fixture()[0].ID, Name: "copy.txt", VfsPath: "alpha/"}
		if err := store.InsertFile(ctx, sameID); !errors.Is(err, data.ErrExist) {
			t.Errorf("Expected ErrExist for duplicate ID, got %v", err)
		}

		for _, invalid := range []*data.FileRecord{
			{Name: "bad/name", VfsPath: "alpha/"},
			{Name: "..", VfsPath: "alpha/"},
			{Name: ".", VfsPath: "alpha/"},
			{Name: "x", VfsPath: "alpha//beta/"},
			{Name: "y", VfsPath: "alpha/./"},
			{Name: "z", VfsPath: "alpha/../beta/"},
		} {
			if err := store.InsertFile(ctx, invalid); !errors.Is(err, data.ErrInvalidRecord) {
				t.Errorf("Expected ErrInvalidRecord for '%s', got %v", invalid.Key(), err)
			}
		}
		if n := fileCount(t, ctx, store, "alpha/"); n != 1 {
			t.Errorf("Expected rejected records to leave alpha/ with 1 file, got %d", n)
		}

		rec := &data.FileRecord{Name: "extra.txt", VfsPath: "Alpha/"}
		if err := store.InsertFile(ctx, rec); err != nil {
			t.Fatalf("InsertFile failed: %v", err)
		}
		if len(rec.ID) != 32 {
			t.Errorf("Expected generated 32 character ID, got %q", rec.ID)
		}

		rec = &data.FileRecord{Name: "lookalike.txt", VfsPath: "beta/gamma_extra/"}
		if err := store.InsertFile(ctx, rec); err != nil {
			t.Fatalf("InsertFile failed: %v", err)
		}

		dirs, err := store.DirectoriesUnder(ctx, "alpha/")
		if err != nil {
			t.Fatalf("DirectoriesUnder failed: %v", err)
		}
		if !slices.Equal(dirs, []string{"alpha/only_one_file/"}) {
			t.Errorf("Expected case sensitive prefix matching, got %v", dirs)
		}

		dirs, err = store.DirectoriesUnder(ctx, "beta/gamma/")
		if err != nil {
			t.Fatalf("DirectoriesUnder failed: %v", err)
		}
		slices.Sort(dirs)
		if !slices.Equal(dirs, []string{"beta/gamma/delta/", "beta/gamma/epsilon/"}) {
			t.Errorf("Expected sibling directory not to match, got %v", dirs)
		}
	})
}

func fileCount(t *testing.T, ctx context.Context, store catalog.Store, dirpath string) int {
	t.Helper()

	files, err := store.FilesAt(ctx, dirpath)
	if err != nil {
		t.Fatalf("FilesAt failed: %v", err)
	}
	return len(files)
}
