package ethdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemDatabase(t *testing.T) {
	db := NewMemDatabase()

	v, err := db.Get([]byte("absent"))
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, db.Put([]byte("k"), []byte("v1")))
	has, err := db.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, db.Put([]byte("k"), []byte("v2")))
	v, _ = db.Get([]byte("k"))
	assert.Equal(t, []byte("v2"), v)

	// stored values are copies, not aliases
	val := []byte("aliased")
	db.Put([]byte("a"), val)
	val[0] = 'X'
	v, _ = db.Get([]byte("a"))
	assert.Equal(t, []byte("aliased"), v)

	require.NoError(t, db.Delete([]byte("k")))
	has, _ = db.Has([]byte("k"))
	assert.False(t, has)
}

func TestMemBatch(t *testing.T) {
	db := NewMemDatabase()
	b := db.NewBatch()

	require.NoError(t, b.Put([]byte("one"), []byte("1")))
	require.NoError(t, b.Put([]byte("two"), []byte("22")))
	assert.Equal(t, 3, b.ValueSize())

	// nothing lands before Write
	v, _ := db.Get([]byte("one"))
	assert.Nil(t, v)

	require.NoError(t, b.Write())
	v, _ = db.Get([]byte("two"))
	assert.Equal(t, []byte("22"), v)

	b.Reset()
	assert.Equal(t, 0, b.ValueSize())
	require.NoError(t, b.Delete([]byte("one")))
	require.NoError(t, b.Write())
	has, _ := db.Has([]byte("one"))
	assert.False(t, has)
}
