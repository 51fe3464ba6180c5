// Package batch splits ordered work into bounded groups for batched remote calls.
package batch

import "errors"

// ErrInvalidChunkSize is returned when a chunk size is not positive.
var ErrInvalidChunkSize = errors.New("batch: chunk size must be positive")

// Chunk splits items into consecutive groups of at most size elements.
// The groups cover items in their original order; only the last may be shorter.
func Chunk[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks, nil
}
