// Package oosikle opens a media library: the configured catalog is confined to
// its own shrine and presented as a virtual directory tree.
package oosikle

import (
	"context"
	"fmt"

	"github.com/Zaphodious/oosikle-app/catalog"
	"github.com/Zaphodious/oosikle-app/config"
	"github.com/Zaphodious/oosikle-app/facadefs"
	"github.com/Zaphodious/oosikle-app/importer"
	"github.com/Zaphodious/oosikle-app/log"
	"github.com/Zaphodious/oosikle-app/shrine"
)

type Library struct {
	*facadefs.FacadeFS

	handle *shrine.Handle[catalog.Store]
	guard  *shrine.Guard
	logger *log.Logger
}

// Open resolves the catalog address, summons the store on a dedicated shrine and
// waits until it answers, so a catalog that cannot be opened fails here rather
// than on first use.
func Open(ctx context.Context, cfg *config.Config, opts ...LibraryOption) (*Library, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := newDefaultLibraryOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	if logger == nil {
		var err error
		if logger, err = cfg.Logger(); err != nil {
			return nil, err
		}
	}

	summon, err := catalog.ParseAddress(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	handle, guard, err := shrine.Build(options.Label, func() (catalog.Store, error) {
		return summon(ctx)
	}, shrine.WithLogger(logger), shrine.WithQueueCapacity(cfg.QueueCapacity))
	if err != nil {
		return nil, err
	}

	name, err := shrine.Send(ctx, handle, func(store catalog.Store) (string, error) {
		return store.Name(), nil
	})
	if err != nil {
		guard.Close()
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	logger.Info("Opened %s catalog", name)

	return &Library{
		FacadeFS: facadefs.New(handle, facadefs.WithLogger(logger)),
		handle:   handle,
		guard:    guard,
		logger:   logger,
	}, nil
}

// Handle returns the shrine owning the catalog store, for callers that need
// queries beyond the virtual tree.
func (l *Library) Handle() *shrine.Handle[catalog.Store] {
	return l.handle
}

// Import scans dir and inserts every file below a new session directory. It
// returns the session ID and the number of files inserted.
func (l *Library) Import(ctx context.Context, dir string) (string, int, error) {
	manifest, err := importer.Scan(ctx, dir)
	if err != nil {
		return "", 0, err
	}

	sessionID := importer.NewSessionID()
	records, err := manifest.Records(ctx, sessionID)
	if err != nil {
		l.logger.Warn("Skipping unreadable files in '%s': %v", dir, err)
	}

	count, err := importer.Import(ctx, l.handle, records, importer.WithLogger(l.logger))
	return sessionID, count, err
}

// Close stops the catalog shrine and releases the store.
func (l *Library) Close() error {
	return l.guard.Close()
}
