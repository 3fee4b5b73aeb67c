// Package sqlite stores the catalog's Files table in an SQLite database using the
// pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Zaphodious/oosikle-app/data"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS Files (
	file_uuid TEXT PRIMARY KEY NOT NULL,
	file_name TEXT NOT NULL,
	file_size_bytes INTEGER NOT NULL DEFAULT 0,
	file_hash TEXT NOT NULL DEFAULT '',
	file_dir_path TEXT NOT NULL DEFAULT '',
	file_extension_tag TEXT NOT NULL DEFAULT '',
	file_encoding TEXT NOT NULL DEFAULT '',
	media_type_override_id TEXT,
	file_deleted INTEGER NOT NULL DEFAULT 0,
	file_read_only INTEGER NOT NULL DEFAULT 0,
	file_vfs_path TEXT NOT NULL DEFAULT '',
	UNIQUE (file_vfs_path, file_name)
);
CREATE INDEX IF NOT EXISTS idx_files_vfs_path ON Files(file_vfs_path);
`

const fileColumns = `file_uuid, file_name, file_size_bytes, file_hash, file_dir_path,
	file_extension_tag, file_encoding, media_type_override_id, file_deleted,
	file_read_only, file_vfs_path`

// substr instead of LIKE: LIKE folds ASCII case and treats '%' and '_' in
// directory names as wildcards.
const (
	dirsUnderSQL = `SELECT DISTINCT file_vfs_path FROM Files
		WHERE substr(file_vfs_path, 1, length(?1)) = ?1 AND file_vfs_path != ?1`
	filesAtSQL = `SELECT ` + fileColumns + ` FROM Files
		WHERE file_vfs_path = ?1 ORDER BY file_name`
	filesUnderSQL = `SELECT ` + fileColumns + ` FROM Files
		WHERE substr(file_vfs_path, 1, length(?1)) = ?1 ORDER BY length(file_vfs_path), file_name`
	fileByIDSQL = `SELECT ` + fileColumns + ` FROM Files WHERE file_uuid = ?1 LIMIT 1`
	insertSQL   = `INSERT INTO Files (` + fileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Store holds two connections pinned from one pool: reads go through reader,
// inserts through writer. In-memory databases only exist per connection, so
// there both roles share a single connection.
//
// A Store is not safe for concurrent use and is meant to live inside a shrine.
type Store struct {
	db     *sql.DB
	reader *sql.Conn
	writer *sql.Conn
}

// Open opens or creates the database at dsn. The dsn can be ":memory:", a file
// path, or a "file:" URI understood by the driver.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	memory := isMemory(dsn)
	if memory {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(2)
	}

	store := &Store{db: db}
	if err := store.pin(ctx, memory); err != nil {
		store.Close(ctx)
		return nil, err
	}

	return store, nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || dsn == "" || strings.Contains(dsn, "mode=memory")
}

func (s *Store) pin(ctx context.Context, memory bool) error {
	writer, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire writer connection: %w", err)
	}
	s.writer = writer

	pragmas := []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := s.writer.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute '%s': %w", pragma, err)
		}
	}

	if _, err := s.writer.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	if memory {
		s.reader = s.writer
		return nil
	}

	reader, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire reader connection: %w", err)
	}
	s.reader = reader

	_, err = s.reader.ExecContext(ctx, "PRAGMA busy_timeout = 5000")
	return err
}

// Name returns the identifier name defined for this store
func (*Store) Name() string {
	return "sqlite"
}

func (s *Store) DirectoriesUnder(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.reader.QueryContext(ctx, dirsUnderSQL, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query directories under '%s': %w", prefix, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return data.ImmediateChildDirs(prefix, paths), nil
}

func (s *Store) FilesAt(ctx context.Context, dirpath string) ([]*data.FileRecord, error) {
	return s.queryFiles(ctx, filesAtSQL, dirpath)
}

// FilesUnder returns every record whose directory is dirpath or lies beneath it.
func (s *Store) FilesUnder(ctx context.Context, dirpath string) ([]*data.FileRecord, error) {
	return s.queryFiles(ctx, filesUnderSQL, dirpath)
}

func (s *Store) GetFile(ctx context.Context, id string) (*data.FileRecord, error) {
	rec, err := scanRecord(s.reader.QueryRowContext(ctx, fileByIDSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: file '%s'", data.ErrNotExist, id)
	}
	return rec, err
}

func (s *Store) queryFiles(ctx context.Context, query, dirpath string) ([]*data.FileRecord, error) {
	rows, err := s.reader.QueryContext(ctx, query, dirpath)
	if err != nil {
		return nil, fmt.Errorf("failed to query files at '%s': %w", dirpath, err)
	}
	defer rows.Close()

	var records []*data.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (s *Store) InsertFile(ctx context.Context, rec *data.FileRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	// Populate unique ID if not already defined
	if rec.ID == "" {
		rec.ID = data.NewRecordID()
	}

	_, err := s.writer.ExecContext(ctx, insertSQL,
		rec.ID, rec.Name, rec.SizeBytes, rec.Hash, rec.DirPath,
		rec.ExtensionTag, rec.Encoding, nullString(rec.MediaTypeOverrideID),
		rec.Deleted, rec.ReadOnly, rec.VfsPath)
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: '%s'", data.ErrExist, rec.Key())
	}
	if err != nil {
		return fmt.Errorf("failed to insert file '%s': %w", rec.Key(), err)
	}

	return nil
}

// Close releases both pinned connections and the pool behind them.
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.reader != nil && s.reader != s.writer {
		errs = append(errs, s.reader.Close())
	}
	if s.writer != nil {
		errs = append(errs, s.writer.Close())
	}
	errs = append(errs, s.db.Close())

	return errors.Join(errs...)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*data.FileRecord, error) {
	var rec data.FileRecord
	var mediaType sql.NullString

	err := row.Scan(&rec.ID, &rec.Name, &rec.SizeBytes, &rec.Hash, &rec.DirPath,
		&rec.ExtensionTag, &rec.Encoding, &mediaType, &rec.Deleted,
		&rec.ReadOnly, &rec.VfsPath)
	if err != nil {
		return nil, err
	}

	if mediaType.Valid {
		rec.MediaTypeOverrideID = &mediaType.String
	}
	return &rec, nil
}

func isConstraintViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}

	code := serr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func nullString(val *string) sql.NullString {
	if val == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *val, Valid: true}
}
