package trie

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"arcchain/storage"
)

func TestTrieCommitFlushPersistsData(t *testing.T) {
	dir := t.TempDir()

	db1, err := storage.NewLevelDBTrieStore(dir)
	require.NoError(t, err)

	tr, err := NewTrie(db1, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("key"))
	value := []byte("value")

	require.NoError(t, tr.Update(key.Bytes(), value))
	root, err := tr.Commit()
	require.NoError(t, err)

	db1.Close()

	db2, err := storage.NewLevelDBTrieStore(dir)
	require.NoError(t, err)
	defer db2.Close()

	restored, err := NewTrie(db2, root.Bytes())
	require.NoError(t, err)

	got, err := restored.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestTrieMemoryStoreRoundTrip(t *testing.T) {
	db := storage.NewMemoryTrieStore()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("mem-key"))
	require.NoError(t, tr.Update(key.Bytes(), []byte("mem-value")))

	got, err := tr.Get(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, []byte("mem-value"), got)
}

func TestTrieDeleteRemovesKey(t *testing.T) {
	db := storage.NewMemoryTrieStore()
	defer db.Close()

	tr, err := NewTrie(db, nil)
	require.NoError(t, err)

	key := crypto.Keccak256Hash([]byte("to-delete"))
	require.NoError(t, tr.Update(key.Bytes(), []byte("value")))
	require.NoError(t, tr.Update(key.Bytes(), nil))

	got, err := tr.Get(key.Bytes())
	require.NoError(t, err)
	require.Empty(t, got)
}
