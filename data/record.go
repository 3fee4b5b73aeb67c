package data

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FileRecord is one row of the catalog's Files table. VfsPath is the flat key
// that places the file in the virtual directory hierarchy: it is the normalized
// directory path ("" for root, otherwise "a/b/") and never includes Name.
type FileRecord struct {
	ID                  string  `json:"file_uuid"`
	Name                string  `json:"file_name"`
	SizeBytes           int64   `json:"file_size_bytes"`
	Hash                string  `json:"file_hash"`
	DirPath             string  `json:"file_dir_path"`
	ExtensionTag        string  `json:"file_extension_tag"`
	Encoding            string  `json:"file_encoding"`
	MediaTypeOverrideID *string `json:"media_type_override_id,omitempty"`
	Deleted             bool    `json:"file_deleted"`
	ReadOnly            bool    `json:"file_read_only"`
	VfsPath             string  `json:"file_vfs_path"`
}

// Key returns the full virtual path of the file.
func (r *FileRecord) Key() string {
	return r.VfsPath + r.Name
}

// Validate checks the invariants every store relies on before inserting.
// Every segment of the vfs path and the name must be resolvable by
// SplitLookupPath, so each stored file can be looked up again by its key.
func (r *FileRecord) Validate() error {
	if invalidSegment(r.Name) || strings.Contains(r.Name, "/") {
		return fmt.Errorf("%w: name '%s'", ErrInvalidRecord, r.Name)
	}
	if r.VfsPath != NormalizeDir(r.VfsPath) {
		return fmt.Errorf("%w: vfs path '%s' is not normalized", ErrInvalidRecord, r.VfsPath)
	}
	if r.VfsPath == "" {
		return nil
	}
	for _, seg := range strings.Split(strings.TrimSuffix(r.VfsPath, "/"), "/") {
		if invalidSegment(seg) {
			return fmt.Errorf("%w: vfs path '%s' contains segment '%s'", ErrInvalidRecord, r.VfsPath, seg)
		}
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *FileRecord) Clone() *FileRecord {
	c := *r
	if r.MediaTypeOverrideID != nil {
		id := *r.MediaTypeOverrideID
		c.MediaTypeOverrideID = &id
	}
	return &c
}

// Equal reports whether both records carry the same values.
func (r *FileRecord) Equal(o *FileRecord) bool {
	if r == nil || o == nil {
		return r == o
	}
	a, b := *r, *o
	a.MediaTypeOverrideID, b.MediaTypeOverrideID = nil, nil
	if a != b {
		return false
	}
	if (r.MediaTypeOverrideID == nil) != (o.MediaTypeOverrideID == nil) {
		return false
	}
	return r.MediaTypeOverrideID == nil || *r.MediaTypeOverrideID == *o.MediaTypeOverrideID
}

// NewRecordID returns a time-ordered identifier in the catalog's simple (dashless) form.
func NewRecordID() string {
	id := uuid.Must(uuid.NewV7())
	return strings.ReplaceAll(id.String(), "-", "")
}
