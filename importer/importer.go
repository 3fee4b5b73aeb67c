// Package importer turns files on disk into catalog records and inserts them
// through the shrine that owns the catalog.
package importer

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Zaphodious/oosikle-app/catalog"
	"github.com/Zaphodious/oosikle-app/data"
	"github.com/Zaphodious/oosikle-app/log"
	"github.com/Zaphodious/oosikle-app/shrine"
	"github.com/charlievieth/fastwalk"
	"github.com/zeebo/blake3"
)

// Manifest is a set of files sharing one root directory on disk.
type Manifest struct {
	// Root is an absolute directory.
	Root string
	// Items are slash separated paths relative to Root, sorted.
	Items []string
}

// Scan collects every regular file below root. Symbolic links are not followed.
func Scan(ctx context.Context, root string) (*Manifest, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var items []string

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		mu.Lock()
		items = append(items, filepath.ToSlash(rel))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan '%s': %w", root, err)
	}

	slices.Sort(items)
	return &Manifest{Root: root, Items: items}, nil
}

// NewManifest builds a manifest rooted at the deepest directory shared by all
// of the given file paths.
func NewManifest(paths []string) (*Manifest, error) {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		abs = append(abs, a)
	}

	root := CommonRoot(abs)
	items := make([]string, 0, len(abs))
	for _, a := range abs {
		rel, err := filepath.Rel(root, a)
		if err != nil {
			return nil, err
		}
		items = append(items, filepath.ToSlash(rel))
	}

	slices.Sort(items)
	return &Manifest{Root: root, Items: items}, nil
}

// CommonRoot returns the deepest directory containing every file in paths.
func CommonRoot(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	sep := string(filepath.Separator)
	common := strings.Split(filepath.Dir(filepath.Clean(paths[0])), sep)
	for _, p := range paths[1:] {
		parts := strings.Split(filepath.Dir(filepath.Clean(p)), sep)
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}

	root := strings.Join(common, sep)
	if root == "" && filepath.IsAbs(paths[0]) {
		return sep
	}
	return root
}

// NewSessionID returns a URL safe identifier derived from the current time.
// Every import places its files below a directory named after its session.
func NewSessionID() string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
	return base64.RawURLEncoding.EncodeToString(buf[:])
}

// Records hashes every item and describes it as a file record placed below
// sessionID in the virtual hierarchy. Unreadable files are skipped and reported
// in the returned error.
func (m *Manifest) Records(ctx context.Context, sessionID string) ([]*data.FileRecord, error) {
	errs := &data.Errors{}
	records := make([]*data.FileRecord, 0, len(m.Items))

	for _, item := range m.Items {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		rec, err := m.record(item, sessionID)
		if err != nil {
			errs.Add(err)
			continue
		}
		records = append(records, rec)
	}

	return records, errs.Errors()
}

func (m *Manifest) record(item, sessionID string) (*data.FileRecord, error) {
	abs := filepath.Join(m.Root, filepath.FromSlash(item))

	size, hash, head, err := hashFile(abs)
	if err != nil {
		return nil, err
	}

	name := path.Base(item)
	ext := ""
	if i := strings.Index(name, "."); i >= 0 {
		ext = name[i+1:]
	}

	return &data.FileRecord{
		ID:           data.NewRecordID(),
		Name:         name,
		SizeBytes:    size,
		Hash:         hash,
		DirPath:      filepath.Dir(abs),
		ExtensionTag: ext,
		Encoding:     detectEncoding(name, head),
		VfsPath:      data.NormalizeDir(path.Join(sessionID, path.Dir(item))),
	}, nil
}

// hashFile hashes the whole file and keeps its first bytes for sniffing.
func hashFile(p string) (int64, string, []byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, "", nil, err
	}
	defer f.Close()

	hasher := blake3.New()
	head := &headBuffer{limit: sniffLen}
	size, err := io.Copy(io.MultiWriter(hasher, head), f)
	if err != nil {
		return 0, "", nil, fmt.Errorf("failed to hash '%s': %w", p, err)
	}

	return size, hex.EncodeToString(hasher.Sum(nil)), head.buf, nil
}

type Option func(*options)

type options struct {
	logger *log.Logger
}

func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Import queues one insert per record on the shrine and waits for all of them.
// It returns how many records were inserted; failed inserts are joined into the
// error without stopping the others. When the shrine stops accepting work part
// way, the count still covers the inserts queued before that.
func Import(ctx context.Context, h *shrine.Handle[catalog.Store], records []*data.FileRecord, opts ...Option) (int, error) {
	o := &options{logger: log.Default()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.Named("importer")
	errs := &data.Errors{}
	var inserted atomic.Int64

	for i, rec := range records {
		err := h.SendRaw(ctx, func(store *catalog.Store) error {
			if err := (*store).InsertFile(ctx, rec); err != nil {
				errs.Add(fmt.Errorf("failed to insert '%s': %w", rec.Key(), err))
				return err
			}
			inserted.Add(1)
			return nil
		})
		if err != nil {
			count := settle(ctx, h, &inserted)
			logger.Warn("Import stopped after queueing %d of %d files, %d inserted: %v", i, len(records), count, err)
			return count, errors.Join(err, errs.Errors())
		}
	}

	// Raw sends run in order, so this reply arrives after every insert has run
	_, err := shrine.Send(ctx, h, func(catalog.Store) (struct{}, error) {
		return struct{}{}, nil
	})
	if err != nil {
		return settle(ctx, h, &inserted), errors.Join(err, errs.Errors())
	}

	count := int(inserted.Load())
	logger.Info("Imported %d of %d files", count, len(records))
	return count, errs.Errors()
}

// settle waits for a stopping shrine to drain what was queued before returning
// the insert count. A cancelled ctx returns the count so far; inserts still
// queued may run later.
func settle(ctx context.Context, h *shrine.Handle[catalog.Store], inserted *atomic.Int64) int {
	select {
	case <-h.Done():
	case <-ctx.Done():
	}
	return int(inserted.Load())
}
