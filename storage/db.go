package storage

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// Database is a generic interface for a key-value store backing the ledger.
// Flat records (committed root, schema version) use the plain Put/Get surface
// while the Merkleized ledger state goes through the trie database built over
// the same store, so both views always land in the same backend.
type Database interface {
	ethdb.KeyValueStore
	TrieDB() *triedb.Database
}

// --- In-Memory DB (for testing) ---

// MemDB keeps everything in process memory. It exists so tests and the
// one-shot CLI commands can run without touching disk.
type MemDB struct {
	ethdb.KeyValueStore
	trieDB *triedb.Database
}

func NewMemDB() *MemDB {
	kv := memorydb.New()
	return &MemDB{
		KeyValueStore: kv,
		trieDB:        triedb.NewDatabase(rawdb.NewDatabase(kv), triedb.HashDefaults),
	}
}

// TrieDB exposes the trie database view of the store.
func (db *MemDB) TrieDB() *triedb.Database {
	return db.trieDB
}

// Close releases the trie database before the underlying store.
func (db *MemDB) Close() error {
	if err := db.trieDB.Close(); err != nil {
		return err
	}
	return db.KeyValueStore.Close()
}

// --- Persistent DB ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	ethdb.KeyValueStore
	trieDB *triedb.Database
}

// NewLevelDB creates or opens a LevelDB database at the specified path. The
// cache size is split between the block cache and the write buffer the same
// way go-ethereum splits it for its chain data directories.
func NewLevelDB(path string, cacheMiB int) (*LevelDB, error) {
	if cacheMiB < 16 {
		cacheMiB = 16
	}
	kv, err := leveldb.NewCustom(path, "tokenledger/db", func(options *opt.Options) {
		options.OpenFilesCacheCapacity = 64
		options.BlockCacheCapacity = cacheMiB / 2 * opt.MiB
		options.WriteBuffer = cacheMiB / 4 * opt.MiB
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open leveldb at %s: %w", path, err)
	}
	return &LevelDB{
		KeyValueStore: kv,
		trieDB:        triedb.NewDatabase(rawdb.NewDatabase(kv), triedb.HashDefaults),
	}, nil
}

// TrieDB exposes the trie database view of the store.
func (ldb *LevelDB) TrieDB() *triedb.Database {
	return ldb.trieDB
}

// Close flushes the trie database and closes the underlying store.
func (ldb *LevelDB) Close() error {
	if err := ldb.trieDB.Close(); err != nil {
		return err
	}
	return ldb.KeyValueStore.Close()
}
