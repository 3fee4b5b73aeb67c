// Package consul stores catalog records as JSON values in the Consul KV store.
package consul

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Zaphodious/oosikle-app/data"
	"github.com/hashicorp/consul/api"
)

// Store keeps one KV entry per file under <prefix>files/<vfs_path><name> and an
// ID index entry under <prefix>ids/<id> holding the file key. Both are written in
// one transaction. Directories are never written; Consul derives them from key
// separators.
//
// Limitations:
// - Consul KV has a 512KB limit per value, far above a single record
// - Listing a directory fetches the whole subtree and filters it client side
type Store struct {
	client *api.Client
	kv     *api.KV
	config *Config
}

const (
	filesNamespace = "files/"
	idsNamespace   = "ids/"
)

// Config contains configuration options for the Consul store
type Config struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix for all keys in Consul KV (default: "oosikle/")
	Prefix string
}

func New(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}

	// Set defaults
	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}
	config.Prefix = data.NormalizeDir(config.Prefix)
	if config.Prefix == "" {
		config.Prefix = "oosikle/"
	}

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &Store{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Name returns the identifier name defined for this store
func (*Store) Name() string {
	return "consul"
}

func (s *Store) DirectoriesUnder(ctx context.Context, prefix string) ([]string, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)

	keys, _, err := s.kv.Keys(s.filesPrefix()+prefix, "/", opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys under '%s': %w", prefix, err)
	}

	dirs := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, "/") {
			dirs = append(dirs, strings.TrimPrefix(key, s.filesPrefix()))
		}
	}

	return data.ImmediateChildDirs(prefix, dirs), nil
}

func (s *Store) FilesAt(ctx context.Context, dirpath string) ([]*data.FileRecord, error) {
	records, err := s.FilesUnder(ctx, dirpath)
	if err != nil {
		return nil, err
	}

	direct := records[:0]
	for _, rec := range records {
		if rec.VfsPath == dirpath {
			direct = append(direct, rec)
		}
	}

	return direct, nil
}

// FilesUnder returns every record whose directory is dirpath or lies beneath it.
func (s *Store) FilesUnder(ctx context.Context, dirpath string) ([]*data.FileRecord, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)

	pairs, _, err := s.kv.List(s.filesPrefix()+dirpath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list files under '%s': %w", dirpath, err)
	}

	records := make([]*data.FileRecord, 0, len(pairs))
	for _, pair := range pairs {
		rec, err := decode(pair)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *Store) InsertFile(ctx context.Context, rec *data.FileRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = data.NewRecordID()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// A CAS with index zero only succeeds while the key does not exist yet, so
	// the transaction fails as a whole on a taken path or a taken ID
	ops := api.TxnOps{
		{KV: &api.KVTxnOp{Verb: api.KVCAS, Key: s.filesPrefix() + rec.Key(), Value: value}},
		{KV: &api.KVTxnOp{Verb: api.KVCAS, Key: s.idKey(rec.ID), Value: []byte(rec.Key())}},
	}
	ok, resp, _, err := s.client.Txn().Txn(ops, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to put '%s': %w", rec.Key(), err)
	}
	if !ok {
		if resp != nil {
			for _, txnErr := range resp.Errors {
				if txnErr.OpIndex == 1 {
					return fmt.Errorf("%w: id '%s'", data.ErrExist, rec.ID)
				}
			}
		}
		return fmt.Errorf("%w: '%s'", data.ErrExist, rec.Key())
	}

	return nil
}

// GetFile follows the ID index to the file entry.
func (s *Store) GetFile(ctx context.Context, id string) (*data.FileRecord, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)

	ref, _, err := s.kv.Get(s.idKey(id), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get id '%s': %w", id, err)
	}
	if ref == nil {
		return nil, fmt.Errorf("%w: id '%s'", data.ErrNotExist, id)
	}

	pair, _, err := s.kv.Get(s.filesPrefix()+string(ref.Value), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get '%s': %w", ref.Value, err)
	}
	if pair == nil {
		return nil, fmt.Errorf("%w: id '%s'", data.ErrNotExist, id)
	}

	return decode(pair)
}

// Close is a no-op, the Consul client holds no connection state
func (s *Store) Close(ctx context.Context) error {
	return nil
}

func (s *Store) filesPrefix() string {
	return s.config.Prefix + filesNamespace
}

func (s *Store) idKey(id string) string {
	return s.config.Prefix + idsNamespace + id
}

func decode(pair *api.KVPair) (*data.FileRecord, error) {
	var rec data.FileRecord
	if err := json.Unmarshal(pair.Value, &rec); err != nil {
		return nil, fmt.Errorf("%w: key '%s': %v", data.ErrInvalidRecord, pair.Key, err)
	}
	return &rec, nil
}
