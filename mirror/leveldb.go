package mirror

import (
	"errors"

	"github.com/chainstamp/ChainStamp/log"
	goleveldb "github.com/syndtr/goleveldb/leveldb"
	dberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to
	// leveldb read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of file handles to allocate to the
	// open database files.
	minHandles = 16
)

var _ Store = (*levelDBStore)(nil)

// levelDBStore mirrors records into a local goleveldb database.
type levelDBStore struct {
	path  string
	lvldb *goleveldb.DB
}

// NewLevelDBStore opens (or creates) the mirror database at path.
func NewLevelDBStore(path string, cache, handles int) (Store, error) {
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // two buffers are used internally
	}
	log.Info("open mirror database", "path", path,
		"cache", cache, "handles", options.OpenFilesCacheCapacity)

	// Open the db and recover any potential corruptions
	db, err := goleveldb.OpenFile(path, options)
	if dberrors.IsCorrupted(err) {
		log.Warn("mirror database corrupted, recovering", "path", path, "err", err)
		db, err = goleveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &levelDBStore{
		path:  path,
		lvldb: db,
	}, nil
}

// Put inserts the given value into the mirror.
func (db *levelDBStore) Put(key string, value []byte) error {
	return db.lvldb.Put([]byte(key), value, nil)
}

// Get retrieves the given key. Missing keys report ErrNotFound.
func (db *levelDBStore) Get(key string) ([]byte, error) {
	dat, err := db.lvldb.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, dberrors.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return dat, nil
}

// Has reports whether a key is present in the mirror.
func (db *levelDBStore) Has(key string) (bool, error) {
	return db.lvldb.Has([]byte(key), nil)
}

// Delete removes the key from the mirror.
func (db *levelDBStore) Delete(key string) error {
	return db.lvldb.Delete([]byte(key), nil)
}

// Close flushes any pending data to disk and closes all io accesses to the
// underlying database.
func (db *levelDBStore) Close() error {
	return db.lvldb.Close()
}
