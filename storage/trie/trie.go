package trie

import (
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethdb"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"
)

// Trie wraps go-ethereum's trie implementation to expose a simplified API
// for the account store while keeping access to the underlying trie
// database.
//
// The wrapper keeps track of the last committed root and recreates the
// underlying trie after each commit/reset so the instance can be reused
// across operations.
//
// Keys passed into Get/Update are expected to already be hashed (keccak256)
// before insertion — state.Manager derives them via pda.FindAddress.
//
// Trie is not safe for concurrent use.
type Trie struct {
	diskdb ethdb.Database
	trieDB *triedb.Database
	trie   *gethtrie.Trie
	root   common.Hash
	seq    uint64
}

// NewTrie creates a trie backed by diskdb at the given root. A nil or empty
// root denotes the empty trie. diskdb is typically produced by
// storage.NewMemoryTrieStore or storage.NewLevelDBTrieStore.
func NewTrie(diskdb ethdb.Database, root []byte) (*Trie, error) {
	trieDB := triedb.NewDatabase(diskdb, nil)
	rootHash := gethtypes.EmptyRootHash
	if len(root) > 0 {
		rootHash = common.BytesToHash(root)
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(rootHash), trieDB)
	if err != nil {
		return nil, err
	}
	return &Trie{
		diskdb: diskdb,
		trieDB: trieDB,
		trie:   underlying,
		root:   rootHash,
	}, nil
}

// Get retrieves a value from the trie for the provided key.
func (t *Trie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(key)
}

// Update inserts or updates a value in the trie for the provided key.
// Passing a nil value deletes the key.
func (t *Trie) Update(key, value []byte) error {
	if len(value) == 0 {
		return t.trie.Delete(key)
	}
	return t.trie.Update(key, value)
}

// Hash returns the root hash of the trie reflecting all in-memory mutations,
// without persisting them.
func (t *Trie) Hash() common.Hash {
	return t.trie.Hash()
}

// Root returns the last committed root hash.
func (t *Trie) Root() common.Hash {
	return t.root
}

// Reset discards any in-memory changes and reloads the trie at the provided
// root, rolling back uncommitted mutations. native/common's
// WithConcurrencyGuard works on the in-memory entry and does not call it.
func (t *Trie) Reset(root common.Hash) error {
	underlying, err := gethtrie.New(gethtrie.TrieID(root), t.trieDB)
	if err != nil {
		return err
	}
	t.trie = underlying
	t.root = root
	return nil
}

// Copy creates a shallow copy of the trie wrapper. The returned trie shares
// the same underlying database but can be mutated independently.
func (t *Trie) Copy() *Trie {
	return &Trie{
		diskdb: t.diskdb,
		trieDB: t.trieDB,
		trie:   t.trie.Copy(),
		root:   t.root,
		seq:    t.seq,
	}
}

// Commit persists the trie changes to the backing database and returns the
// new root hash. Unlike a block-producing chain, this subsystem has no
// parent-hash/block-number lineage to record, so commits are identified by a
// monotonically increasing internal sequence number instead.
func (t *Trie) Commit() (common.Hash, error) {
	newRoot, nodes := t.trie.Commit(false)
	if nodes != nil {
		merged := trienode.NewMergedNodeSet()
		if err := merged.Merge(nodes); err != nil {
			return common.Hash{}, err
		}
		t.seq++
		if err := t.trieDB.Update(newRoot, t.root, t.seq, merged, nil); err != nil {
			return common.Hash{}, err
		}
		if err := t.trieDB.Commit(newRoot, false); err != nil {
			return common.Hash{}, err
		}
	}
	underlying, err := gethtrie.New(gethtrie.TrieID(newRoot), t.trieDB)
	if err != nil {
		return common.Hash{}, err
	}
	t.trie = underlying
	t.root = newRoot
	return newRoot, nil
}

// DiskDB exposes the backing ethdb.Database in case callers need to access
// it directly (e.g. to share it with a secondary index).
func (t *Trie) DiskDB() ethdb.Database {
	return t.diskdb
}
