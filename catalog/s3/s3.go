// Package s3 exposes an S3 compatible bucket as a catalog. Every object is one
// file record and key prefixes form the directory hierarchy.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Zaphodious/oosikle-app/data"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	recordContentType = "application/vnd.oosikle.file+json"

	// Records are small JSON documents; anything larger is never downloaded.
	maxRecordSize = 64 << 10

	// indexDir holds one object per record ID whose body is the record key. It
	// is hidden from listings and cannot be inserted into.
	indexDir = ".oosikle-index/"
)

// Store reads records written by InsertFile as JSON objects. Objects placed in
// the bucket by other tools are still listed, with a record derived from their
// key, size and ETag.
type Store struct {
	client     *minio.Client
	bucketName string
}

func New(endpoint, bucketName, accessKey, secretKey string, useSsl bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSsl,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Open makes sure the bucket exists, creating it when it does not.
func (s *Store) Open(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
}

// Name returns the identifier name defined for this store
func (*Store) Name() string {
	return "s3"
}

func (s *Store) list(ctx context.Context, prefix string, recursive bool) ([]minio.ObjectInfo, error) {
	var objects []minio.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    recursive,
		WithMetadata: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects under '%s': %w", prefix, obj.Err)
		}
		objects = append(objects, obj)
	}

	return objects, nil
}

func (s *Store) DirectoriesUnder(ctx context.Context, prefix string) ([]string, error) {
	objects, err := s.list(ctx, prefix, false)
	if err != nil {
		return nil, err
	}

	dirs := make([]string, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") && obj.Key != indexDir {
			dirs = append(dirs, obj.Key)
		}
	}

	return data.ImmediateChildDirs(prefix, dirs), nil
}

func (s *Store) FilesAt(ctx context.Context, dirpath string) ([]*data.FileRecord, error) {
	objects, err := s.list(ctx, dirpath, false)
	if err != nil {
		return nil, err
	}

	return s.records(ctx, objects)
}

// FilesUnder returns every record whose directory is dirpath or lies beneath it.
func (s *Store) FilesUnder(ctx context.Context, dirpath string) ([]*data.FileRecord, error) {
	objects, err := s.list(ctx, dirpath, true)
	if err != nil {
		return nil, err
	}

	return s.records(ctx, objects)
}

func (s *Store) records(ctx context.Context, objects []minio.ObjectInfo) ([]*data.FileRecord, error) {
	records := make([]*data.FileRecord, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") || strings.HasPrefix(obj.Key, indexDir) {
			continue
		}

		rec, err := s.readRecord(ctx, obj)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *Store) readRecord(ctx context.Context, info minio.ObjectInfo) (*data.FileRecord, error) {
	if !recordCandidate(info) {
		return s.deriveRecord(info), nil
	}

	body, err := s.read(ctx, info.Key)
	if err != nil {
		return nil, err
	}

	var rec data.FileRecord
	if err := json.Unmarshal(body, &rec); err != nil || rec.Key() != info.Key {
		return s.deriveRecord(info), nil
	}

	return &rec, nil
}

// recordCandidate reports whether an object may hold a record and is worth
// downloading. Servers that honour metadata listing report the content type, the
// rest only give the size.
func recordCandidate(info minio.ObjectInfo) bool {
	if info.Size > maxRecordSize {
		return false
	}

	contentType := info.ContentType
	for key, value := range info.UserMetadata {
		if contentType == "" && strings.EqualFold(key, "content-type") {
			contentType = value
		}
	}

	return contentType == "" || contentType == recordContentType
}

// deriveRecord describes a foreign object from its listing entry alone.
func (s *Store) deriveRecord(info minio.ObjectInfo) *data.FileRecord {
	name := path.Base(info.Key)
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(s.bucketName+"/"+info.Key))

	ext := ""
	if i := strings.Index(name, "."); i >= 0 {
		ext = name[i+1:]
	}

	return &data.FileRecord{
		ID:           strings.ReplaceAll(id.String(), "-", ""),
		Name:         name,
		SizeBytes:    info.Size,
		Hash:         strings.Trim(info.ETag, `"`),
		ExtensionTag: ext,
		ReadOnly:     true,
		VfsPath:      strings.TrimSuffix(info.Key, name),
	}
}

func (s *Store) InsertFile(ctx context.Context, rec *data.FileRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	key := rec.Key()
	if strings.HasPrefix(key, indexDir) {
		return fmt.Errorf("%w: '%s' is reserved", data.ErrInvalidRecord, indexDir)
	}

	if rec.ID == "" {
		rec.ID = data.NewRecordID()
	} else if err := s.absent(ctx, indexDir+rec.ID); err != nil {
		return fmt.Errorf("id '%s': %w", rec.ID, err)
	}
	if err := s.absent(ctx, key); err != nil {
		return err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// The record goes in before its index entry. S3 has no transactions, so two
	// writers racing on the same path or ID can both pass the checks above.
	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: recordContentType,
		UserMetadata: map[string]string{
			"file-uuid": rec.ID,
			"file-hash": rec.Hash,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put object '%s': %w", key, err)
	}

	_, err = s.client.PutObject(ctx, s.bucketName, indexDir+rec.ID, strings.NewReader(key), int64(len(key)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("failed to index object '%s': %w", key, err)
	}

	return nil
}

// GetFile follows the ID index to the record object.
func (s *Store) GetFile(ctx context.Context, id string) (*data.FileRecord, error) {
	key, err := s.read(ctx, indexDir+id)
	if err != nil {
		return nil, fmt.Errorf("id '%s': %w", id, err)
	}

	body, err := s.read(ctx, string(key))
	if err != nil {
		return nil, fmt.Errorf("id '%s': %w", id, err)
	}

	var rec data.FileRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("%w: object '%s': %v", data.ErrInvalidRecord, key, err)
	}

	return &rec, nil
}

// absent returns data.ErrExist when key is already taken.
func (s *Store) absent(ctx context.Context, key string) error {
	_, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err == nil {
		return fmt.Errorf("%w: '%s'", data.ErrExist, key)
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to stat object '%s': %w", key, err)
	}

	return nil
}

func (s *Store) read(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s': %w", key, err)
	}
	defer obj.Close()

	body, err := io.ReadAll(obj)
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil, fmt.Errorf("%w: '%s'", data.ErrNotExist, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, err)
	}

	return body, nil
}

// Close is a no-op, the minio client holds no connection state that needs releasing
func (s *Store) Close(ctx context.Context) error {
	return nil
}
