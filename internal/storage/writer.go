// This file implements a generic, batched table writer that slices a
// materialized table into batches and invokes the repository's bulk-insert
// primitive per batch.
//
// Backends (Postgres, MySQL, MSSQL, etc.) implement CopyFrom using their most
// efficient primitives (e.g., Postgres COPY, MSSQL bulk copy).
//
// Logging: on every successful flush, a concise progress line is emitted with
// running totals and instantaneous rows/sec since the previous flush.
package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"tablekit/internal/metrics"
	"tablekit/internal/table"
)

// DefaultBatchSize is used by WriteTable when the caller passes batchSize <= 0.
const DefaultBatchSize = 5000

// WriteTable inserts every row of t into repo in batches of batchSize, using
// the table's column names in schema order. It returns the total number of
// rows reported by the backend and the first error encountered.
//
// Cancellation: returns (total, ctx.Err()) when ctx is canceled between
// batches. Progress is logged on each successful flush, and a batch counter
// is recorded per flush under the given recipe name.
func WriteTable(ctx context.Context, repo Repository, t *table.Table, batchSize int, recipe string) (int64, error) {
	if repo == nil {
		return 0, fmt.Errorf("repository must not be nil")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	columns := t.Schema().Names()

	var (
		total       int64
		batches     int64
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	rows := t.Rows()
	for off := 0; off < len(rows); off += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		end := off + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([][]any, 0, end-off)
		for _, r := range rows[off:end] {
			batch = append(batch, r.V)
		}

		n, err := repo.CopyFrom(ctx, columns, batch)
		total += n
		if err != nil {
			log.Printf("writer: bulk insert failed after=%d total=%d err=%v", n, total, err)
			return total, err
		}

		// Progress log per successful batch.
		batches++
		metrics.RecordBatches(recipe, 1)
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		insertedSinceLast := total - lastTotal
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(insertedSinceLast) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s since_last=%s",
			batches,
			rps,
			n,
			total,
			now.Sub(start).Truncate(time.Millisecond),
			sinceLast.Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total
	}

	return total, nil
}
