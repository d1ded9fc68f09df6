package mirror

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainstamp/ChainStamp/params"
)

func newTempStore(t *testing.T) (Store, string) {
	t.Helper()
	dir, err := ioutil.TempDir("", "mirrortest")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	store, err := NewLevelDBStore(filepath.Join(dir, "db"), 0, 0)
	require.NoError(t, err)
	return store, dir
}

func TestLevelDBRoundTrip(t *testing.T) {
	store, _ := newTempStore(t)
	defer store.Close()

	key := "c775e7b757ede630cd0aa1113bd102661ab38829ca52a6422ab782862f268646"
	value := []byte(`{"record":{"txid":"0x1"}}`)

	ok, err := store.Has(key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(key)
	assert.True(t, IsNotFound(err))

	require.NoError(t, store.Put(key, value))

	ok, err = store.Has(key)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	// overwrite keeps the latest value
	require.NoError(t, store.Put(key, []byte("v2")))
	got, err = store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, store.Delete(key))
	_, err = store.Get(key)
	assert.True(t, IsNotFound(err))

	// deleting a missing key is fine
	assert.NoError(t, store.Delete(key))
}

func TestLevelDBReopenKeepsData(t *testing.T) {
	dir, err := ioutil.TempDir("", "mirrortest")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "db")

	store, err := NewLevelDBStore(path, 0, 0)
	require.NoError(t, err)
	require.NoError(t, store.Put("k", []byte("v")))
	require.NoError(t, store.Close())

	store, err = NewLevelDBStore(path, 0, 0)
	require.NoError(t, err)
	defer store.Close()
	got, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestNewFactory(t *testing.T) {
	store, err := New(nil)
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = New(&params.MirrorConfig{})
	require.NoError(t, err)
	assert.Nil(t, store)

	dir, err := ioutil.TempDir("", "mirrortest")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	store, err = New(&params.MirrorConfig{Backend: "leveldb", Path: filepath.Join(dir, "db")})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, store.Close())

	_, err = New(&params.MirrorConfig{Backend: "redis"})
	assert.Error(t, err)
}
