// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package trie

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/Taraxa-project/taraxa-trie/ethdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type proofKv struct {
	k, v []byte
}

func randomTrie(n int) (*Trie, map[string]*proofKv) {
	rng := rand.New(rand.NewSource(7))
	trie := newEmpty()
	vals := make(map[string]*proofKv)
	for i := byte(0); i < 100; i++ {
		small := &proofKv{[]byte{i}, []byte{i}}
		large := &proofKv{common.LeftPadBytes([]byte{i}, 32), []byte{i}}
		trie.Insert(small.k, small.v)
		trie.Insert(large.k, large.v)
		vals[string(small.k)] = small
		vals[string(large.k)] = large
	}
	for i := 0; i < n; i++ {
		k := make([]byte, 32)
		v := make([]byte, 20+rng.Intn(40))
		binary.BigEndian.PutUint64(k, uint64(i))
		rng.Read(k[8:])
		rng.Read(v)
		kv := &proofKv{k, v}
		trie.Insert(kv.k, kv.v)
		vals[string(kv.k)] = kv
	}
	return trie, vals
}

func TestProof(t *testing.T) {
	trie, vals := randomTrie(500)
	root := trie.Hash()
	for _, kv := range vals {
		proof := ethdb.NewMemDatabase()
		require.NoError(t, trie.Prove(kv.k, 0, proof))
		val, err := VerifyProof(root, kv.k, proof)
		require.NoError(t, err, "key %x", kv.k)
		assert.Equal(t, kv.v, val, "key %x", kv.k)
	}
}

func TestOneElementProof(t *testing.T) {
	trie := newEmpty()
	updateString(trie, "k", "v")
	root := trie.Hash()

	proof := ethdb.NewMemDatabase()
	require.NoError(t, trie.Prove([]byte("k"), 0, proof))
	assert.Equal(t, 1, proof.Len(), "proof should have one element")

	val, err := VerifyProof(root, []byte("k"), proof)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestBadProof(t *testing.T) {
	trie, vals := randomTrie(400)
	root := trie.Hash()
	rng := rand.New(rand.NewSource(9))
	for _, kv := range vals {
		proof := ethdb.NewMemDatabase()
		require.NoError(t, trie.Prove(kv.k, 0, proof))
		require.NotZero(t, proof.Len())

		// tampering with a node changes its digest, so the entry moves to a
		// key the walk will never ask for
		keys := proof.Keys()
		node := keys[rng.Intn(len(keys))]
		enc, _ := proof.Get(node)
		require.NoError(t, proof.Delete(node))
		enc[rng.Intn(len(enc))] ^= 1 << uint(rng.Intn(8))
		proof.Put(crypto.Keccak256(enc), enc)

		if _, err := VerifyProof(root, kv.k, proof); err == nil {
			t.Fatalf("expected proof to fail for key %x", kv.k)
		}
	}
}

// A proof for an absent key verifies to an exclusion: nil value, no error.
func TestMissingKeyProof(t *testing.T) {
	trie := newEmpty()
	require.NoError(t, trie.Insert([]byte{0xAA}, []byte("a")))
	require.NoError(t, trie.Insert([]byte{0xAB}, []byte("b")))
	root := trie.Hash()

	proof := ethdb.NewMemDatabase()
	require.NoError(t, trie.Prove([]byte{0xCC}, 0, proof))
	require.NotZero(t, proof.Len())

	val, err := VerifyProof(root, []byte{0xCC}, proof)
	require.NoError(t, err)
	assert.Nil(t, val)

	// longer, same-length and empty keys diverging elsewhere also prove out
	for _, key := range [][]byte{{0xAA, 0x01}, {0xA0}, {}} {
		proof := ethdb.NewMemDatabase()
		require.NoError(t, trie.Prove(key, 0, proof))
		val, err := VerifyProof(root, key, proof)
		require.NoError(t, err, "key %x", key)
		assert.Nil(t, val, "key %x", key)
	}
}

// Tampering with the expected root makes verification fail outright.
func TestWrongRootProof(t *testing.T) {
	trie, _ := randomTrie(100)
	root := trie.Hash()
	key := []byte{0x01}

	proof := ethdb.NewMemDatabase()
	require.NoError(t, trie.Prove(key, 0, proof))

	bad := root
	bad[0] ^= 0xff
	_, err := VerifyProof(bad, key, proof)
	assert.Error(t, err)
}

// Proofs built from a committed, store-backed trie resolve their path on
// demand and still verify.
func TestProofFromStore(t *testing.T) {
	db := ethdb.NewMemDatabase()
	trie, _ := New(common.Hash{}, db, 0, nil)
	updateString(trie, "doe", "reindeer")
	updateString(trie, "dog", "puppy")
	updateString(trie, "dogglesworth", "cat")
	root := commit(t, trie, db)

	fresh, err := New(root, db, 0, nil)
	require.NoError(t, err)
	proof := ethdb.NewMemDatabase()
	require.NoError(t, fresh.Prove([]byte("dog"), 0, proof))
	val, err := VerifyProof(root, []byte("dog"), proof)
	require.NoError(t, err)
	assert.Equal(t, []byte("puppy"), val)
}
