package docstore

import (
	"context"
)

// BatchWriter groups Set/Delete operations and commits a full batch as soon
// as the per-batch ceiling is reached; the remainder is committed by Flush.
type BatchWriter struct {
	col     Collection
	limit   int
	pending []BatchOp

	batches int
	sets    int
	deletes int
}

func NewBatchWriter(col Collection, limit int) *BatchWriter {
	if limit <= 0 || limit > HardBatchLimit {
		limit = BatchLimit
	}
	return &BatchWriter{
		col:     col,
		limit:   limit,
		pending: make([]BatchOp, 0, limit),
	}
}

func (w *BatchWriter) Set(ctx context.Context, key string, data map[string]interface{}, merge bool) error {
	w.sets++
	return w.push(ctx, BatchOp{Kind: OpSet, Key: key, Data: data, Merge: merge})
}

func (w *BatchWriter) Delete(ctx context.Context, key string) error {
	w.deletes++
	return w.push(ctx, BatchOp{Kind: OpDelete, Key: key})
}

func (w *BatchWriter) push(ctx context.Context, op BatchOp) error {
	w.pending = append(w.pending, op)
	if len(w.pending) >= w.limit {
		return w.Flush(ctx)
	}
	return nil
}

// Flush commits any pending partial batch. Safe to call with nothing
// pending.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := w.col.CommitBatch(ctx, w.pending); err != nil {
		return err
	}
	w.batches++
	w.pending = w.pending[:0]
	return nil
}

func (w *BatchWriter) Batches() int { return w.batches }
func (w *BatchWriter) Sets() int    { return w.sets }
func (w *BatchWriter) Deletes() int { return w.deletes }
