package trie

import (
	"github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru"
)

// StorageStrategy maps a user key to the key actually walked by the trie,
// before nibble expansion.
type StorageStrategy = interface {
	MapKey(key []byte) (mpt_key []byte, err error)
}

// DefaultStorageStrategy stores keys as given.
type DefaultStorageStrategy byte

func (DefaultStorageStrategy) MapKey(key []byte) (mpt_key []byte, err error) {
	return key, nil
}

// secureKeyMemoSize bounds the hashed-key memo of NewSecure tries.
const secureKeyMemoSize = 65536

// KeyHashingStorageStrategy walks the trie under the keccak-256 digest of the
// user key, so adversarial key sets cannot degenerate the trie into a deep
// chain. Digests are memoized in an LRU cache.
type KeyHashingStorageStrategy struct {
	memo *lru.Cache
}

func NewKeyHashingStorageStrategy(memo_size int) *KeyHashingStorageStrategy {
	ret := new(KeyHashingStorageStrategy)
	if memo_size > 0 {
		ret.memo, _ = lru.New(memo_size)
	}
	return ret
}

func (self *KeyHashingStorageStrategy) MapKey(key []byte) (mpt_key []byte, err error) {
	if self.memo == nil {
		return crypto.Keccak256(key), nil
	}
	k := string(key)
	if hashed, ok := self.memo.Get(k); ok {
		return hashed.([]byte), nil
	}
	mpt_key = crypto.Keccak256(key)
	self.memo.Add(k, mpt_key)
	return mpt_key, nil
}
