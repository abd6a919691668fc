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
	"bytes"
	"fmt"

	"github.com/Taraxa-project/taraxa-trie/ethdb"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
)

// Prove constructs a merkle proof for key. The result contains all encoded
// nodes on the path to the value at key. The value itself is also included in
// the last node and can be retrieved by verifying the proof.
//
// If the trie does not contain a value for key, the returned proof contains
// all nodes of the longest existing prefix of the key (at least the root node),
// ending with the node that proves the absence of the key. An empty trie has
// no root node, so its proof has no elements.
//
// Proof elements are keyed by their digest in proofDb, so a digest shared
// between levels appears only once. Nodes whose encoding is shorter than the
// digest width stay embedded in their parent and are never proof elements
// themselves, with the exception of the root.
func (self *Trie) Prove(key []byte, fromLevel uint, proofDb ethdb.Putter) error {
	mpt_key, err_0 := self.storage_strat.MapKey(key)
	if err_0 != nil {
		return err_0
	}
	// Collect all nodes on the path to key.
	mpt_key_hex := keybytesToHex(mpt_key)
	pos := 0
	nodes := []node{}
	tn := self.root
	for pos < len(mpt_key_hex) && tn != nil {
		switch n := tn.(type) {
		case *shortNode:
			if len(mpt_key_hex)-pos < len(n.Key) || !bytes.Equal(n.Key, mpt_key_hex[pos:pos+len(n.Key)]) {
				// The trie doesn't contain the key.
				tn = nil
			} else {
				tn = n.Val
				pos += len(n.Key)
			}
			nodes = append(nodes, n)
		case *fullNode:
			tn = n.Children[mpt_key_hex[pos]]
			pos++
			nodes = append(nodes, n)
		case hashNode:
			var err error
			tn, err = self.resolve(n, mpt_key_hex[:pos])
			if err != nil {
				log.Error(fmt.Sprintf("Unhandled trie error: %v", err))
				return err
			}
		default:
			panic(fmt.Sprintf("%T: invalid node: %v", tn, tn))
		}
	}
	// Hash the collected nodes with exactly the commit-time inline-vs-hash
	// discipline, emitting every hash-addressed encoding.
	hasher := newHasher(0, 0)
	defer returnHasherToPool(hasher)
	for i, n := range nodes {
		// Don't bother checking for errors here since hasher panics
		// if encoding doesn't work and we're not writing to any database.
		n, _, _ = hasher.hashChildren(n, nil)
		hn, _ := hasher.hash_and_maybe_store(n, false, nil)
		if hash, ok := hn.(hashNode); ok || i == 0 {
			// If the node's database encoding is a hash (or is the
			// root node), it becomes a proof element.
			if fromLevel > 0 {
				fromLevel--
			} else {
				enc, _ := rlp.EncodeToBytes(n)
				if !ok {
					hash = crypto.Keccak256(enc)
				}
				if err := proofDb.Put(hash, enc); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// VerifyProof checks merkle proofs. Given the root hash of a committed trie
// and a key, it walks the proof elements in proofDb by digest. The return is
// the proven value for an inclusion proof, or a nil value for a proven
// exclusion (the walk lands on an empty slot or a diverging short node). A
// missing or undecodable proof element is a verification failure.
func VerifyProof(rootHash common.Hash, key []byte, proofDb ethdb.Getter) (value []byte, err error) {
	key = keybytesToHex(key)
	wantHash := rootHash
	for i := 0; ; i++ {
		buf, _ := proofDb.Get(wantHash[:])
		if buf == nil {
			return nil, fmt.Errorf("proof node %d (hash %064x) missing", i, wantHash)
		}
		n, err := decodeNode(wantHash[:], buf, 0)
		if err != nil {
			return nil, fmt.Errorf("bad proof node %d: %v", i, err)
		}
		keyrest, cld := proof_get(n, key)
		switch cld := cld.(type) {
		case nil:
			// The trie doesn't contain the key.
			return nil, nil
		case hashNode:
			key = keyrest
			copy(wantHash[:], cld)
		case valueNode:
			return cld, nil
		}
	}
}

// proof_get walks key through n, descending through embedded children, and
// stops at the first node that is absent from the decoded subtree: a hash
// node to be fetched from the proof, a value node, or nil for a miss.
func proof_get(tn node, key []byte) ([]byte, node) {
	for {
		switch n := tn.(type) {
		case *shortNode:
			if len(key) < len(n.Key) || !bytes.Equal(n.Key, key[:len(n.Key)]) {
				return nil, nil
			}
			tn = n.Val
			key = key[len(n.Key):]
		case *fullNode:
			tn = n.Children[key[0]]
			key = key[1:]
		case hashNode:
			return key, n
		case nil:
			return key, nil
		case valueNode:
			return nil, n
		default:
			panic(fmt.Sprintf("%T: invalid node: %v", tn, tn))
		}
	}
}
