package storage

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	gethleveldb "github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/syndtr/goleveldb/leveldb"
)

// Database is a generic interface for a key-value store, letting the
// secondary-record store use any backend (in-memory or persistent). The
// account trie uses the ethdb.Database stores further below instead.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Close() // A way to gracefully shut down the database connection.
}

// --- In-Memory DB (for testing) ---

type MemDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemDB() *MemDB {
	return &MemDB{
		data: make(map[string][]byte),
	}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data[string(key)] = value
	return nil
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	value, ok := db.data[string(key)]
	if !ok {
		return nil, fmt.Errorf("key not found")
	}
	return value, nil
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	// Nothing to close for an in-memory database.
}

// --- Persistent DB (for mainnet) ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	db *leveldb.DB
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDB{db: db}, nil
}

// Put inserts or updates a key-value pair.
func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

// Get retrieves a value for a given key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	ldb.db.Close()
}

// --- Trie-backing stores ---
//
// The account trie (storage/trie) needs a full ethdb.Database, not the
// narrow Put/Get/Close interface above: go-ethereum's trie/triedb package
// uses the key-value, batch, and iterator facets of ethdb.Database
// internally. Rather than hand-implement that interface a second time, the
// trie backing stores below are built directly from go-ethereum's own
// ethdb/memorydb and ethdb/leveldb packages, which already satisfy it.

// NewMemoryTrieStore returns an in-memory ethdb.Database suitable for
// backing an account trie in tests or ephemeral runs.
func NewMemoryTrieStore() ethdb.Database {
	return rawdb.NewDatabase(memorydb.New())
}

// NewLevelDBTrieStore opens (or creates) a LevelDB-backed ethdb.Database at
// path for backing a persistent account trie.
func NewLevelDBTrieStore(path string) (ethdb.Database, error) {
	db, err := gethleveldb.New(path, 256, 0, "", false)
	if err != nil {
		return nil, err
	}
	return rawdb.NewDatabase(db), nil
}
