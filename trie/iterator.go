// Copyright 2014 The go-ethereum Authors
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

// Iterator walks the live leaves of a trie in the lexicographic nibble order
// of their keys. Within a full node the value slot is visited after the
// sixteen nibble slots, matching the terminator nibble sorting last.
//
// Hash nodes are resolved from the store on demand; a failed resolution parks
// the error on Err and ends the iteration. The iterator must not be used
// across mutations of the trie.
type Iterator struct {
	trie  *Trie
	stack []iterator_frame

	Key   []byte // key of the current leaf
	Value []byte // value of the current leaf
	Err   error
}

// iterator_frame is one suspended step of the traversal: a node, the hex path
// consumed to reach it, and the next child slot to descend into.
type iterator_frame struct {
	n        node
	path_hex []byte
	child    int
}

func newIterator(trie *Trie) *Iterator {
	ret := &Iterator{trie: trie}
	if trie.root != nil {
		ret.stack = append(ret.stack, iterator_frame{n: trie.root})
	}
	return ret
}

// Next advances to the next leaf, returning false when the trie is exhausted
// or a resolution failed (see Err).
func (self *Iterator) Next() bool {
	for len(self.stack) > 0 {
		frame := &self.stack[len(self.stack)-1]
		switch n := frame.n.(type) {
		case valueNode:
			self.Key = hexToKeybytes(frame.path_hex)
			self.Value = n
			self.pop()
			return true
		case *shortNode:
			frame.n = n.Val
			frame.path_hex = concat(frame.path_hex, n.Key...)
			frame.child = 0
		case *fullNode:
			for frame.child < len(n.Children) && n.Children[frame.child] == nil {
				frame.child++
			}
			if frame.child == len(n.Children) {
				self.pop()
				continue
			}
			idx := frame.child
			frame.child++
			child_path := concat(frame.path_hex, byte(idx))
			self.stack = append(self.stack, iterator_frame{n: n.Children[idx], path_hex: child_path})
		case hashNode:
			resolved, err := self.trie.resolve(n, frame.path_hex)
			if err != nil {
				self.Err = err
				self.stack = self.stack[:0]
				return false
			}
			frame.n = resolved
		default:
			self.pop()
		}
	}
	return false
}

func (self *Iterator) pop() {
	self.stack = self.stack[:len(self.stack)-1]
}
