// Package mirror provides the optional local record store. The mirror is
// keyed by content digest and holds full records for fast retrieval; it is
// never authoritative, every record stays reconstructible from the ledger
// alone.
package mirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chainstamp/ChainStamp/params"
)

// ErrNotFound is returned when a key has no mirror entry.
var ErrNotFound = errors.New("mirror: not found")

// IsNotFound reports whether err means a missing mirror entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store is a flat key value store for mirrored records.
type Store interface {
	Put(key string, value []byte) error
	Get(key string) ([]byte, error)
	Has(key string) (bool, error)
	Delete(key string) error
	Close() error
}

// New builds the configured mirror store. An empty backend means mirroring
// is disabled and callers get a nil store.
func New(cfg *params.MirrorConfig) (Store, error) {
	if cfg == nil || cfg.Backend == "" {
		return nil, nil
	}
	switch strings.ToLower(cfg.Backend) {
	case "leveldb":
		return NewLevelDBStore(cfg.Path, 0, 0)
	case "mongodb":
		return NewMongoDBStore(cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown mirror backend %q", cfg.Backend)
	}
}
