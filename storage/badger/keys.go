package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/coursehound/coursehound/core"
)

// Key prefixes for different data types
const (
	catalogRecordPrefix = "catrec"
	catalogMetaKey      = "catmeta"
	embeddingPrefix     = "embvec"
)

// makeRecordKey generates a key for a catalog record by course code.
func makeRecordKey(code string) []byte {
	return []byte(fmt.Sprintf("%s:%s", catalogRecordPrefix, code))
}

// recordKeyPrefix returns the iteration prefix for catalog records.
func recordKeyPrefix() []byte {
	return []byte(catalogRecordPrefix + ":")
}

// makeMetadataKey generates the singleton replica metadata key.
func makeMetadataKey() []byte {
	return []byte(catalogMetaKey)
}

// makeEmbeddingKey generates a key for a cached embedding vector.
// Format: prefix:key, with the key written in BigEndian order so
// lexicographic sort matches numeric order.
func makeEmbeddingKey(key core.Key) []byte {
	prefix := embeddingPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(key))
	return buf
}

// embeddingKeyPrefix returns the iteration prefix for cached embeddings.
func embeddingKeyPrefix() []byte {
	return []byte(embeddingPrefix + ":")
}
