package vector

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// VectorDB manages the Badger-backed vector database connection. Records for
// one collection live under persist_directory/collection_name; the layout on
// disk is Badger's own and carries no per-document files.
type VectorDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.VectorDBConfig
	path   string
}

// NewVectorDB opens (or creates) the store for the configured collection
func NewVectorDB(logger arbor.ILogger, config *common.VectorDBConfig) (*VectorDB, error) {
	path := filepath.Join(config.PersistDirectory, config.CollectionName)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector store directory: %w", err)
	}

	logger.Debug().Str("path", path).Msg("Opening vector store")

	options := badgerhold.DefaultOptions
	options.Options = badger.DefaultOptions(path).
		WithLogger(nil). // arbor owns the log stream
		WithNumVersionsToKeep(1)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	logger.Debug().Str("collection", config.CollectionName).Msg("Vector store initialized")

	return &VectorDB{
		store:  store,
		logger: logger,
		config: config,
		path:   path,
	}, nil
}

// Store returns the underlying badgerhold store
func (v *VectorDB) Store() *badgerhold.Store {
	return v.store
}

// Path returns the on-disk location of this collection
func (v *VectorDB) Path() string {
	return v.path
}

// CollectionName returns the configured collection name
func (v *VectorDB) CollectionName() string {
	return v.config.CollectionName
}

// RunGC runs one value-log GC pass to reclaim space from deleted and
// re-embedded documents. No rewrite needed is not an error.
func (v *VectorDB) RunGC() error {
	if v.store == nil {
		return nil
	}
	err := v.store.Badger().RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}

// Close closes the database connection
func (v *VectorDB) Close() error {
	if v.store != nil {
		if err := v.RunGC(); err != nil {
			v.logger.Debug().Err(err).Msg("Value-log GC on close failed")
		}
		return v.store.Close()
	}
	return nil
}
