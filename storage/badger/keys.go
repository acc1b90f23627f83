package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/storyloom/distill/core"
)

// Key prefixes for the record families this backend stores.
const (
	documentPrefix     = "docrec"
	documentDatePrefix = "docrecd"
	documentIDSeq      = "docrecseq"
	chunkPrefix        = "chkrec"
	themePrefix        = "thmrec"
	quotePrefix        = "qterec"
	insightPrefix      = "insrec"
	keywordPrefix      = "kwdrec"
	aggregatePrefix    = "aggrec"
)

// makeDocumentKey generates the primary key for a document.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentDateKey generates a composite key for the creation-date index.
// Format: prefix:timestamp:id, BigEndian so lexicographic order is time order.
func makeDocumentDateKey(createdAt time.Time, id core.ID) []byte {
	prefix := []byte(documentDatePrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialDocumentDateKey generates a partial date key for range seeks.
func makePartialDocumentDateKey(timestamp time.Time) []byte {
	prefix := []byte(documentDatePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentID:index, BigEndian so a prefix scan yields chunks
// in index order.
func makeChunkKey(documentID core.ID, index int) []byte {
	prefix := []byte(chunkPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makePartialChunkKey generates the per-document chunk scan prefix.
func makePartialChunkKey(documentID core.ID) []byte {
	prefix := []byte(chunkPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeArtifactKey generates a composite key for a per-document artifact row.
// Format: kind:documentID:seq. The seq is the artifact's position within the
// latest bulk insert, so re-inserting replaces deterministically.
func makeArtifactKey(kind string, documentID core.ID, seq uint64) []byte {
	prefix := []byte(kind + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makePartialArtifactKey generates the per-document scan prefix for one
// artifact kind.
func makePartialArtifactKey(kind string, documentID core.ID) []byte {
	prefix := []byte(kind + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(documentID))
	return buf
}

// makeAggregateKey generates the key for a document's aggregated result.
func makeAggregateKey(documentID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", aggregatePrefix, documentID))
}
