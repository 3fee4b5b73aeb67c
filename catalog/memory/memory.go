// Package memory provides an ephemeral catalog held in ordered in-memory maps.
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zaphodious/oosikle-app/data"
	"github.com/tidwall/btree"
)

// Store keeps file records ordered by their full virtual path, so a directory
// listing is a single prefix scan. It is not safe for concurrent use and is
// meant to live inside a shrine.
type Store struct {
	// full virtual path -> record
	files *btree.Map[string, *data.FileRecord]
	// directory path -> number of files directly inside it
	dirs *btree.Map[string, int]
	ids  map[string]string
}

func New() *Store {
	return &Store{
		files: btree.NewMap[string, *data.FileRecord](0),
		dirs:  btree.NewMap[string, int](0),
		ids:   make(map[string]string),
	}
}

// Name returns the identifier name defined for this store
func (*Store) Name() string {
	return "memory"
}

func (s *Store) DirectoriesUnder(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var paths []string
	s.dirs.Ascend(prefix, func(dir string, _ int) bool {
		if !strings.HasPrefix(dir, prefix) {
			return false
		}
		paths = append(paths, dir)
		return true
	})

	return data.ImmediateChildDirs(prefix, paths), nil
}

func (s *Store) FilesAt(ctx context.Context, dirpath string) ([]*data.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*data.FileRecord
	s.files.Ascend(dirpath, func(key string, rec *data.FileRecord) bool {
		if !strings.HasPrefix(key, dirpath) {
			return false
		}
		if rec.VfsPath == dirpath {
			records = append(records, rec.Clone())
		}
		return true
	})

	return records, nil
}

// FilesUnder returns every record whose directory is dirpath or lies beneath it.
func (s *Store) FilesUnder(ctx context.Context, dirpath string) ([]*data.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*data.FileRecord
	s.files.Ascend(dirpath, func(key string, rec *data.FileRecord) bool {
		if !strings.HasPrefix(key, dirpath) {
			return false
		}
		records = append(records, rec.Clone())
		return true
	})

	return records, nil
}

func (s *Store) GetFile(ctx context.Context, id string) (*data.FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, exists := s.ids[id]
	if !exists {
		return nil, fmt.Errorf("%w: file '%s'", data.ErrNotExist, id)
	}
	rec, _ := s.files.Get(key)
	return rec.Clone(), nil
}

func (s *Store) InsertFile(ctx context.Context, rec *data.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	key := rec.Key()
	if _, exists := s.files.Get(key); exists {
		return fmt.Errorf("%w: '%s'", data.ErrExist, key)
	}

	if rec.ID == "" {
		rec.ID = data.NewRecordID()
	}
	if _, exists := s.ids[rec.ID]; exists {
		return fmt.Errorf("%w: file id '%s'", data.ErrExist, rec.ID)
	}

	s.files.Set(key, rec.Clone())
	s.ids[rec.ID] = key

	count, _ := s.dirs.Get(rec.VfsPath)
	s.dirs.Set(rec.VfsPath, count+1)
	return nil
}

// Close releases all records held by the store.
func (s *Store) Close(ctx context.Context) error {
	s.files.Clear()
	s.dirs.Clear()
	clear(s.ids)
	return nil
}
