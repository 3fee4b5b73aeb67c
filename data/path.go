package data

import (
	"fmt"
	"slices"
	"strings"
)

// NormalizeDir converts a directory path into the catalog's key form:
// "" for the root, otherwise slash separated with a trailing slash and no
// leading slash.
func NormalizeDir(path string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return ""
	}

	return path + "/"
}

// Leaf returns the final segment of a directory path ("pico8/celeste/" -> "celeste").
func Leaf(dirpath string) string {
	dirpath = strings.TrimSuffix(dirpath, "/")
	if i := strings.LastIndex(dirpath, "/"); i >= 0 {
		return dirpath[i+1:]
	}

	return dirpath
}

// SplitLookupPath splits a relative item path into its parent directory segments
// and the final component. Paths naming a directory by trailing slash, or
// containing empty, "." or ".." segments, are rejected.
func SplitLookupPath(path string) ([]string, string, error) {
	path = strings.TrimPrefix(path, "/")
	if path == "" || strings.HasSuffix(path, "/") {
		return nil, "", fmt.Errorf("%w: '%s' has no final component", ErrInvalidPath, path)
	}

	segments := strings.Split(path, "/")
	for _, seg := range segments {
		if invalidSegment(seg) {
			return nil, "", fmt.Errorf("%w: '%s' contains segment '%s'", ErrInvalidPath, path, seg)
		}
	}

	return segments[:len(segments)-1], segments[len(segments)-1], nil
}

func invalidSegment(seg string) bool {
	return seg == "" || seg == "." || seg == ".."
}

// ChildDir returns the immediate child directory of prefix that contains key,
// or false when key sits directly in prefix or outside of it.
func ChildDir(prefix, key string) (string, bool) {
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}

	rest := key[len(prefix):]
	i := strings.Index(rest, "/")
	if i <= 0 {
		return "", false
	}

	return prefix + rest[:i+1], true
}

// ImmediateChildDirs derives the deduplicated, sorted set of immediate child
// directories of prefix from a list of directory paths lying under it.
func ImmediateChildDirs(prefix string, dirpaths []string) []string {
	seen := make(map[string]struct{}, len(dirpaths))
	children := make([]string, 0, len(dirpaths))
	for _, p := range dirpaths {
		child, ok := ChildDir(prefix, p)
		if !ok {
			continue
		}
		if _, dup := seen[child]; dup {
			continue
		}
		seen[child] = struct{}{}
		children = append(children, child)
	}

	slices.Sort(children)
	return children
}
