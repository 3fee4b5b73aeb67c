package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Zaphodious/oosikle-app/catalog/consul"
	"github.com/Zaphodious/oosikle-app/catalog/memory"
	"github.com/Zaphodious/oosikle-app/catalog/postgres"
	"github.com/Zaphodious/oosikle-app/catalog/s3"
	"github.com/Zaphodious/oosikle-app/catalog/sqlite"
	"github.com/Zaphodious/oosikle-app/data"
)

// Summoner opens the store an address points to. It is meant to run on the
// thread that will own the store.
type Summoner func(ctx context.Context) (Store, error)

// ParseAddress resolves a catalog address into a Summoner without connecting.
func ParseAddress(address string) (Summoner, error) {
	// Format address
	address = strings.TrimSpace(address)
	// Special 'direct no address declarations'
	switch address {
	case ":memory:", ":ephemeral:":
		return parseMemoryAddress(), nil
	}
	// Quick check to identify if we work with a possibly valid address
	if !strings.Contains(address, "://") {
		return nil, fmt.Errorf("failed to parse address '%s': %w", address, data.ErrMalformedAddr)
	}
	// Protocol-based parsing
	switch {
	// sqlite://<path>
	case strings.HasPrefix(address, "sqlite://"):
		return parseSqliteAddress(strings.TrimPrefix(address, "sqlite://"))
	// postgres://<user>:<pass>@<address>:<port>/<database>?<options>
	case strings.HasPrefix(address, "postgres://"):
		return parsePostgresAddress(address)
	case strings.HasPrefix(address, "postgresql://"):
		return parsePostgresAddress(address)
	case strings.HasPrefix(address, "psql://"):
		return parsePostgresAddress("postgres://" + strings.TrimPrefix(address, "psql://"))
	// consul://<address>:<port>/<prefix>?<token>&<dc>
	case strings.HasPrefix(address, "consul://"):
		return parseConsulAddress(address)
	// s3://<address>:<port>/<bucket>?<access_key>&<secret_key>&<ssl>
	case strings.HasPrefix(address, "s3://"):
		return parseS3Address(address)
	case strings.HasPrefix(address, "minio://"):
		return parseS3Address(address)
	}

	return nil, fmt.Errorf("failed to parse address '%s': %w", address, data.ErrUnknownProtocol)
}

func parseMemoryAddress() Summoner {
	return func(ctx context.Context) (Store, error) {
		return memory.New(), nil
	}
}

func parseSqliteAddress(path string) (Summoner, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite address has no path", data.ErrMalformedAddr)
	}

	return func(ctx context.Context) (Store, error) {
		return sqlite.Open(ctx, path)
	}, nil
}

func parsePostgresAddress(address string) (Summoner, error) {
	if _, err := url.Parse(address); err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedAddr, err)
	}

	return func(ctx context.Context) (Store, error) {
		return postgres.Open(ctx, address)
	}, nil
}

func parseConsulAddress(address string) (Summoner, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedAddr, err)
	}

	config := &consul.Config{
		Address:    u.Host,
		Token:      u.Query().Get("token"),
		Datacenter: u.Query().Get("dc"),
		Prefix:     u.Path,
	}

	return func(ctx context.Context) (Store, error) {
		return consul.New(config)
	}, nil
}

func parseS3Address(address string) (Summoner, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedAddr, err)
	}

	bucket := strings.Trim(u.Path, "/")
	if u.Host == "" || bucket == "" || strings.Contains(bucket, "/") {
		return nil, fmt.Errorf("%w: s3 address needs '<endpoint>/<bucket>'", data.ErrMalformedAddr)
	}

	query := u.Query()
	useSsl := false
	if v := query.Get("ssl"); v != "" {
		if useSsl, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("%w: ssl '%s'", data.ErrMalformedAddr, v)
		}
	}
	accessKey, secretKey := query.Get("access_key"), query.Get("secret_key")

	return func(ctx context.Context) (Store, error) {
		store, err := s3.New(u.Host, bucket, accessKey, secretKey, useSsl)
		if err != nil {
			return nil, err
		}
		if err := store.Open(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}, nil
}
