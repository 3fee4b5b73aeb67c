package data

import (
	"errors"
	"slices"
	"testing"
)

func TestNormalizeDir(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "root", input: "", expected: ""},
		{name: "slash root", input: "/", expected: ""},
		{name: "already normalized", input: "beta/gamma/", expected: "beta/gamma/"},
		{name: "missing trailing slash", input: "beta/gamma", expected: "beta/gamma/"},
		{name: "leading slash", input: "/pico8", expected: "pico8/"},
		{name: "whitespace", input: " alpha/ ", expected: "alpha/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDir(tt.input); got != tt.expected {
				t.Errorf("NormalizeDir(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLeaf(t *testing.T) {
	for input, expected := range map[string]string{
		"pico8/celeste/": "celeste",
		"pico8/":         "pico8",
		"a/b/c":          "c",
		"":               "",
	} {
		if got := Leaf(input); got != expected {
			t.Errorf("Leaf(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestSplitLookupPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parents []string
		final   string
		wantErr bool
	}{
		{name: "single", input: "file.txt", parents: []string{}, final: "file.txt"},
		{name: "nested", input: "beta/gamma/abook1.m4b", parents: []string{"beta", "gamma"}, final: "abook1.m4b"},
		{name: "leading slash", input: "/pico8/celeste", parents: []string{"pico8"}, final: "celeste"},
		{name: "empty", input: "", wantErr: true},
		{name: "trailing slash", input: "pico8/celeste/", wantErr: true},
		{name: "double slash", input: "pico8//celeste", wantErr: true},
		{name: "dot dot", input: "pico8/../x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parents, final, err := SplitLookupPath(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Fatalf("Expected ErrInvalidPath, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitLookupPath failed: %v", err)
			}
			if !slices.Equal(parents, tt.parents) || final != tt.final {
				t.Errorf("Got (%v, %q), want (%v, %q)", parents, final, tt.parents, tt.final)
			}
		})
	}
}

func TestChildDir(t *testing.T) {
	tests := []struct {
		prefix, key string
		expected    string
		ok          bool
	}{
		{"", "beta/gamma/x.m4b", "beta/", true},
		{"beta/", "beta/gamma/x.m4b", "beta/gamma/", true},
		{"beta/", "beta/x.md", "", false},
		{"beta/", "alpha/x.md", "", false},
		{"", "root.txt", "", false},
	}

	for _, tt := range tests {
		got, ok := ChildDir(tt.prefix, tt.key)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("ChildDir(%q, %q) = (%q, %v), want (%q, %v)", tt.prefix, tt.key, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestFileRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     *FileRecord
		wantErr bool
	}{
		{name: "nested", rec: &FileRecord{Name: "a.png", VfsPath: "alpha/"}},
		{name: "root", rec: &FileRecord{Name: "welcome.txt", VfsPath: ""}},
		{name: "dotfile", rec: &FileRecord{Name: ".hidden", VfsPath: "alpha/.config/"}},
		{name: "empty name", rec: &FileRecord{Name: "", VfsPath: "alpha/"}, wantErr: true},
		{name: "slash in name", rec: &FileRecord{Name: "a/b.png", VfsPath: "alpha/"}, wantErr: true},
		{name: "dot name", rec: &FileRecord{Name: ".", VfsPath: "alpha/"}, wantErr: true},
		{name: "dot dot name", rec: &FileRecord{Name: "..", VfsPath: "a/"}, wantErr: true},
		{name: "missing trailing slash", rec: &FileRecord{Name: "a.png", VfsPath: "alpha"}, wantErr: true},
		{name: "leading slash", rec: &FileRecord{Name: "a.png", VfsPath: "/alpha/"}, wantErr: true},
		{name: "empty segment", rec: &FileRecord{Name: "x", VfsPath: "a//b/"}, wantErr: true},
		{name: "dot segment", rec: &FileRecord{Name: "y", VfsPath: "c/./"}, wantErr: true},
		{name: "dot dot segment", rec: &FileRecord{Name: "z", VfsPath: "c/../d/"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRecord) {
					t.Fatalf("Expected ErrInvalidRecord, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}

			// Whatever validates must resolve again by its key
			if _, _, err := SplitLookupPath(tt.rec.Key()); err != nil {
				t.Errorf("SplitLookupPath(%q) failed: %v", tt.rec.Key(), err)
			}
		})
	}
}

func TestFileRecord_CloneAndEqual(t *testing.T) {
	mt := "PLAINTEXT"
	rec := &FileRecord{ID: NewRecordID(), Name: "a.txt", VfsPath: "docs/", MediaTypeOverrideID: &mt}
	clone := rec.Clone()

	if !rec.Equal(clone) {
		t.Fatal("Expected clone to equal original")
	}

	*clone.MediaTypeOverrideID = "OTHER"
	if rec.Equal(clone) {
		t.Error("Expected clone to be independent of original")
	}
	if len(rec.ID) != 32 {
		t.Errorf("Expected 32 character simple uuid, got %q", rec.ID)
	}
}

func TestImmediateChildDirs(t *testing.T) {
	paths := []string{
		"beta/",
		"beta/gamma/",
		"beta/gamma/delta/",
		"beta/epsilon/",
		"beta/epsilon/",
		"betamax/",
		"alpha/",
	}

	got := ImmediateChildDirs("beta/", paths)
	want := []string{"beta/epsilon/", "beta/gamma/"}
	if !slices.Equal(got, want) {
		t.Errorf("ImmediateChildDirs(beta/) = %v, want %v", got, want)
	}

	got = ImmediateChildDirs("", paths)
	want = []string{"alpha/", "beta/", "betamax/"}
	if !slices.Equal(got, want) {
		t.Errorf("ImmediateChildDirs(root) = %v, want %v", got, want)
	}
}

func TestGetMIMEType(t *testing.T) {
	tests := []struct {
		name     string
		expected ContentType
		encoding string
	}{
		{name: "manual.txt", expected: ContentTypeTextPlain, encoding: EncodingUTF8},
		{name: "NOTES.MD", expected: ContentTypeTextMarkdown, encoding: EncodingUTF8},
		{name: "jelpi.p8.png", expected: ContentTypeImagePNG, encoding: EncodingBinary},
		{name: "abook1.m4b", expected: ContentTypeAudioMP4, encoding: EncodingBinary},
		{name: "sonic.sms", expected: ContentTypeApplicationStream, encoding: EncodingBinary},
		{name: "README", expected: ContentTypeApplicationStream, encoding: EncodingBinary},
	}

	for _, tt := range tests {
		if got := GetMIMEType(tt.name); got != tt.expected {
			t.Errorf("GetMIMEType(%q) = %q, want %q", tt.name, got, tt.expected)
		}
		if got := EncodingOf(tt.name); got != tt.encoding {
			t.Errorf("EncodingOf(%q) = %q, want %q", tt.name, got, tt.encoding)
		}
	}
}
