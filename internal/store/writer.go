package store

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// Writer adds documents to an Index. Documents become visible to readers
// when their batch is flushed; Commit flushes the remainder.
// A Writer is not safe for concurrent use; give it a single owner.
type Writer struct {
	idx       *Index
	batch     *bleve.Batch
	batchSize int
	added     int
}

// Add queues doc, flushing the batch once it holds batchSize documents.
// Adding a document with an existing ID replaces it.
func (w *Writer) Add(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("document has no id")
	}
	if err := w.batch.Index(doc.ID, doc.fields()); err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	w.added++
	if w.batch.Size() >= w.batchSize {
		return w.flush()
	}
	return nil
}

// Commit flushes the pending batch.
func (w *Writer) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.flush()
}

// Added returns the number of documents accepted so far.
func (w *Writer) Added() int {
	return w.added
}

func (w *Writer) flush() error {
	if w.batch.Size() == 0 {
		return nil
	}

	w.idx.mu.RLock()
	defer w.idx.mu.RUnlock()
	if w.idx.closed {
		return fmt.Errorf("index is closed")
	}

	if err := w.idx.index.Batch(w.batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	w.batch.Reset()
	return nil
}
