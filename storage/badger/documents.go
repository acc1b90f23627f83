// Copyright 2025 Storyloom Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/storyloom/distill/core"
	"github.com/storyloom/distill/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a document repository over the backend.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// CreateDocument stores a new document. A zero Id is replaced with a
// generated sequence ID; a caller-supplied Id that already exists returns
// ErrDuplicateID.
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", storage.ErrInvalidRecord)
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if doc.Id == 0 {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// Sequences can return 0 on first call, skip it.
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			doc.Id = core.ID(nextID)
		} else {
			_, err := tx.Get(makeDocumentKey(doc.Id))
			if err == nil {
				return fmt.Errorf("%w: document %d", storage.ErrDuplicateID, doc.Id)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}

		now := time.Now().UTC()
		doc.CreatedAt = now
		doc.UpdatedAt = now
		if doc.Status == 0 {
			doc.Status = core.DocumentQueued
		}

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		dateKey := makeDocumentDateKey(doc.CreatedAt, doc.Id)
		if err := tx.Set(dateKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments returns up to limit documents, most recently created first.
func (r *DocumentRepository) ListDocuments(ctx context.Context, limit int) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the far end of the date index and walk backwards.
		startKey := makePartialDocumentDateKey(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(documentDatePrefix + ":")

		count := 0
		for iter.Seek(startKey); iter.Valid() && count < limit; iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || slices.Compare(key[:len(prefix)], prefix) != 0 {
				break
			}

			var docID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				docID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			doc, err := readDocument(tx, makeDocumentKey(docID))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
				count++
			}
		}
		return nil
	}, false)

	return results, err
}

// UpdateStatus transitions a document's status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id core.ID, status core.DocumentStatus) error {
	return r.mutate(id, func(doc *core.Document) {
		doc.Status = status
	})
}

// MarkProcessing moves a document into the processing state.
func (r *DocumentRepository) MarkProcessing(ctx context.Context, id core.ID) error {
	return r.UpdateStatus(ctx, id, core.DocumentProcessing)
}

// MarkCompleted moves a document into the completed state and records the
// provenance of its results.
func (r *DocumentRepository) MarkCompleted(ctx context.Context, id core.ID, provenance core.Provenance) error {
	return r.mutate(id, func(doc *core.Document) {
		doc.Status = core.DocumentCompleted
		doc.Provenance = provenance
	})
}

// MarkFailed moves a document into the failed state.
func (r *DocumentRepository) MarkFailed(ctx context.Context, id core.ID) error {
	return r.UpdateStatus(ctx, id, core.DocumentFailed)
}

// mutate applies fn to a stored document and persists it with a fresh
// UpdatedAt.
func (r *DocumentRepository) mutate(id core.ID, fn func(*core.Document)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
		}

		fn(doc)
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readDocument reads a document from the transaction, nil when absent.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
