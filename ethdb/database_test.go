package ethdb

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLDB(t *testing.T) (*LDBDatabase, func()) {
	dirname, err := ioutil.TempDir(os.TempDir(), "ethdb_test_")
	require.NoError(t, err)
	db, err := NewLDBDatabase(dirname, 0, 0)
	require.NoError(t, err)
	return db, func() {
		db.Close()
		os.RemoveAll(dirname)
	}
}

func TestLDBDatabase(t *testing.T) {
	db, remove := newTestLDB(t)
	defer remove()

	v, err := db.Get([]byte("absent"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	v, err = db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := db.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Delete([]byte("k")))
	v, _ = db.Get([]byte("k"))
	assert.Nil(t, v)
}

func TestLDBBatch(t *testing.T) {
	db, remove := newTestLDB(t)
	defer remove()

	b := db.NewBatch()
	require.NoError(t, b.Put([]byte("one"), []byte("1")))
	require.NoError(t, b.Put([]byte("two"), []byte("22")))
	assert.Equal(t, 3, b.ValueSize())

	v, _ := db.Get([]byte("one"))
	assert.Nil(t, v)

	require.NoError(t, b.Write())
	v, _ = db.Get([]byte("one"))
	assert.Equal(t, []byte("1"), v)
}
