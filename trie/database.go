package trie

import (
	"time"

	"github.com/Taraxa-project/taraxa-trie/ethdb"
	"github.com/allegro/bigcache"
)

// Database is the store the trie reads nodes from and commits batches to.
// Keys are node digests plus the reserved state key.
type Database interface {
	ethdb.Getter
	ethdb.Putter
}

// CachedDatabase wraps a store with an in-memory cache of clean node
// encodings, so hot subtrees resolve without touching the disk layer. Writes
// go through to the backing store and populate the cache, which is safe
// because node entries are content-addressed and therefore immutable.
type CachedDatabase struct {
	disk   Database
	cleans *bigcache.BigCache
}

// NewCachedDatabase allocates a cache of approximately cache_size_mb megabytes
// in front of disk.
func NewCachedDatabase(disk Database, cache_size_mb int) *CachedDatabase {
	cleans, _ := bigcache.NewBigCache(bigcache.Config{
		Shards:             1024,
		LifeWindow:         time.Hour,
		MaxEntriesInWindow: cache_size_mb * 1024,
		MaxEntrySize:       512,
		HardMaxCacheSize:   cache_size_mb,
	})
	return &CachedDatabase{disk: disk, cleans: cleans}
}

func (self *CachedDatabase) Get(key []byte) ([]byte, error) {
	if enc, err := self.cleans.Get(string(key)); err == nil && len(enc) > 0 {
		return enc, nil
	}
	enc, err := self.disk.Get(key)
	if err == nil && len(enc) > 0 {
		self.cleans.Set(string(key), enc)
	}
	return enc, err
}

func (self *CachedDatabase) Has(key []byte) (bool, error) {
	if enc, err := self.cleans.Get(string(key)); err == nil && len(enc) > 0 {
		return true, nil
	}
	return self.disk.Has(key)
}

func (self *CachedDatabase) Put(key []byte, value []byte) error {
	if err := self.disk.Put(key, value); err != nil {
		return err
	}
	self.cleans.Set(string(key), value)
	return nil
}
