package batcher

import (
	"comment-insights-go/internal/selector"
	"comment-insights-go/internal/types"
)

// DefaultSize is the number of comments per analysis call.
const DefaultSize = 200

// Partition sorts comments by recommend count and splits them into
// contiguous batches of batchSize; the last batch may be shorter. A
// non-positive batchSize falls back to DefaultSize.
func Partition(comments []types.Comment, batchSize int) []types.CommentBatch {
	if batchSize <= 0 {
		batchSize = DefaultSize
	}
	sorted := selector.SortByRecommends(comments)

	batches := make([]types.CommentBatch, 0, (len(sorted)+batchSize-1)/batchSize)
	for start := 0; start < len(sorted); start += batchSize {
		end := min(start+batchSize, len(sorted))
		batches = append(batches, types.CommentBatch(sorted[start:end:end]))
	}
	return batches
}

// Format renders a batch with batch-local indices starting at 1.
func Format(b types.CommentBatch) string {
	return selector.Format(b)
}
