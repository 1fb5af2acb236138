package importer

import (
	"context"

	"orderdesk/internal"
)

// writeBatches sends records in chunks of size. The first failing chunk
// stops the run; chunks already written stay written.
func writeBatches[T any](ctx context.Context, op string, records []T, size int, write func(context.Context, []T) error) (committed, batches int, err error) {
	if size <= 0 {
		size = len(records)
	}
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches++
		if err := write(ctx, records[start:end]); err != nil {
			return committed, batches, &internal.RemoteWriteError{Op: op, Batch: batches, Committed: committed, Err: err}
		}
		committed += end - start
	}
	return committed, batches, nil
}
