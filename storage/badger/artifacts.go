package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/storage"
)

// ArtifactRepository implements storage.ArtifactRepository for BadgerDB.
type ArtifactRepository struct {
	backend *Backend
}

var _ storage.ArtifactRepository = (*ArtifactRepository)(nil)

// NewArtifactRepository creates an artifact repository over the backend.
func NewArtifactRepository(backend *Backend) (storage.ArtifactRepository, error) {
	return &ArtifactRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *ArtifactRepository) Close() error {
	return nil
}

// BulkInsertChunks replaces the stored chunks of every document the batch
// touches, then writes the batch keyed by (document, index).
func (r *ArtifactRepository) BulkInsertChunks(ctx context.Context, chunks ...core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[core.ID]bool)
		for i := range chunks {
			if chunks[i].DocumentId == 0 {
				return fmt.Errorf("%w: chunk %d missing document id", storage.ErrInvalidRecord, chunks[i].Index)
			}
			if !seen[chunks[i].DocumentId] {
				seen[chunks[i].DocumentId] = true
				if err := deletePrefix(tx, makePartialChunkKey(chunks[i].DocumentId)); err != nil {
					return err
				}
			}
		}

		for i := range chunks {
			key := makeChunkKey(chunks[i].DocumentId, chunks[i].Index)
			if err := tx.Set(key, storage.MarshalChunk(&chunks[i])); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// BulkInsertThemes replaces the document's stored themes.
func (r *ArtifactRepository) BulkInsertThemes(ctx context.Context, documentID core.ID, themes ...core.Theme) error {
	return r.replaceArtifacts(documentID, themePrefix, len(themes), func(tx *badger.Txn, i int) error {
		return tx.Set(makeArtifactKey(themePrefix, documentID, uint64(i)), storage.MarshalTheme(&themes[i]))
	})
}

// BulkInsertQuotes replaces the document's stored quotes.
func (r *ArtifactRepository) BulkInsertQuotes(ctx context.Context, documentID core.ID, quotes ...core.Quote) error {
	return r.replaceArtifacts(documentID, quotePrefix, len(quotes), func(tx *badger.Txn, i int) error {
		return tx.Set(makeArtifactKey(quotePrefix, documentID, uint64(i)), storage.MarshalQuote(&quotes[i]))
	})
}

// BulkInsertInsights replaces the document's stored insights.
func (r *ArtifactRepository) BulkInsertInsights(ctx context.Context, documentID core.ID, insights ...core.Insight) error {
	return r.replaceArtifacts(documentID, insightPrefix, len(insights), func(tx *badger.Txn, i int) error {
		return tx.Set(makeArtifactKey(insightPrefix, documentID, uint64(i)), storage.MarshalInsight(&insights[i]))
	})
}

// BulkInsertKeywords replaces the document's stored keywords.
func (r *ArtifactRepository) BulkInsertKeywords(ctx context.Context, documentID core.ID, keywords ...core.Keyword) error {
	return r.replaceArtifacts(documentID, keywordPrefix, len(keywords), func(tx *badger.Txn, i int) error {
		return tx.Set(makeArtifactKey(keywordPrefix, documentID, uint64(i)), storage.MarshalKeyword(&keywords[i]))
	})
}

// replaceArtifacts deletes a document's rows of one artifact kind and writes
// count fresh rows via write, all in one transaction.
func (r *ArtifactRepository) replaceArtifacts(documentID core.ID, kind string, count int, write func(tx *badger.Txn, i int) error) error {
	if documentID == 0 {
		return fmt.Errorf("%w: missing document id", storage.ErrInvalidRecord)
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(tx, makePartialArtifactKey(kind, documentID)); err != nil {
			return err
		}
		for i := 0; i < count; i++ {
			if err := write(tx, i); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// SaveAggregatedResult stores the document-level result, overwriting any
// previous one.
func (r *ArtifactRepository) SaveAggregatedResult(ctx context.Context, result *core.AggregatedResult) error {
	if result == nil || result.DocumentId == 0 {
		return fmt.Errorf("%w: aggregated result missing document id", storage.ErrInvalidRecord)
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeAggregateKey(result.DocumentId)
		if err := tx.Set(key, storage.MarshalAggregatedResult(result)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetAggregatedResult retrieves the document-level result.
func (r *ArtifactRepository) GetAggregatedResult(ctx context.Context, documentID core.ID) (*core.AggregatedResult, error) {
	var result *core.AggregatedResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeAggregateKey(documentID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: aggregated result for document %d", storage.ErrNotFound, documentID)
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalAggregatedResult(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// GetChunks returns a document's chunks ordered by index.
func (r *ArtifactRepository) GetChunks(ctx context.Context, documentID core.ID) ([]core.Chunk, error) {
	var chunks []core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				chunks = append(chunks, *chunk)
			}
		}
		return nil
	}, false)
	return chunks, err
}

// GetKeywords returns a document's stored keywords in insertion order.
func (r *ArtifactRepository) GetKeywords(ctx context.Context, documentID core.ID) ([]core.Keyword, error) {
	var keywords []core.Keyword
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialArtifactKey(keywordPrefix, documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var keyword *core.Keyword
			err := iter.Item().Value(func(val []byte) error {
				var err error
				keyword, err = storage.UnmarshalKeyword(val)
				return err
			})
			if err != nil {
				return err
			}
			if keyword != nil {
				keywords = append(keywords, *keyword)
			}
		}
		return nil
	}, false)
	return keywords, err
}

// UpdateChunkVector attaches an embedding to a stored chunk.
func (r *ArtifactRepository) UpdateChunkVector(ctx context.Context, documentID core.ID, chunkIndex int, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(documentID, chunkIndex)
		item, err := tx.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: chunk %d of document %d", storage.ErrNotFound, chunkIndex, documentID)
			}
			return err
		}

		var chunk *core.Chunk
		if err := item.Value(func(val []byte) error {
			var unmarshalErr error
			chunk, unmarshalErr = storage.UnmarshalChunk(val)
			return unmarshalErr
		}); err != nil {
			return err
		}

		chunk.Vector = vector
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FindSimilarChunks delegates to the backend's vector scan.
func (r *ArtifactRepository) FindSimilarChunks(ctx context.Context, vector []float32, topK int) ([]core.SimilarChunk, error) {
	return r.backend.FindSimilarChunks(ctx, vector, topK)
}

// deletePrefix removes every key under prefix. Keys are collected first
// because deleting while iterating invalidates the iterator.
func deletePrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	iter := tx.NewIterator(opts)
	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
