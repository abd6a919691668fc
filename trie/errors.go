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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNoDatabase is returned by operations that need the backing store when the
// trie was constructed without one.
var ErrNoDatabase = errors.New("trie: no database configured")

// MissingNodeError is returned by the trie functions (Get, Insert, Delete)
// in the case where a trie node is not present in the local database. It contains
// information necessary for retrieving the missing node.
//
// Path holds the hex nibbles of the key consumed before the failing lookup, so
// len(Path) is the position within the full nibble key. RootHash and NodeHash
// default to the zero hash when unknown.
type MissingNodeError struct {
	RootHash common.Hash // hash of the committed root the lookup started from
	NodeHash common.Hash // hash of the missing node
	Path     []byte      // hex-encoded path to the missing node
}

func (err *MissingNodeError) Error() string {
	return fmt.Sprintf("missing trie node %x (root %x) at path %x", err.NodeHash, err.RootHash, err.Path)
}

// InvalidRootError is returned when a root digest of an unexpected length is
// injected into a trie or recovered from the state key.
type InvalidRootError struct {
	Root []byte
}

func (err *InvalidRootError) Error() string {
	return fmt.Sprintf("invalid root %x: %d bytes, want %d or none", err.Root, len(err.Root), common.HashLength)
}
