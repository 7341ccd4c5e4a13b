// FILE: internal/repository/contract/offline_store.go
// Adapter interface for the historical, time-partitioned tier
package contract

import (
	"context"
	"iter"
	"time"

	"feature-store-be/internal/entity"
)

// OfflineStore is the historical tier retaining every ingested record for
// training and audit. Storage is partitioned by the date derived from the
// record timestamp. Appends are keyed by (entityId, timestamp): re-appending
// the same key overwrites instead of duplicating, which makes retries after a
// partial write idempotent.
type OfflineStore interface {
	Append(ctx context.Context, group string, record *entity.IngestedRecord) error
	// Scan returns a lazy sequence of records whose timestamp falls inside
	// the inclusive [start, end] range, ordered by (entityId, timestamp)
	// ascending. Nil bounds leave that side open; partition pruning happens
	// on the date derived from the bounds. The sequence is restartable:
	// ranging it again re-reads the partitions.
	Scan(ctx context.Context, group string, start, end *time.Time) iter.Seq2[*entity.IngestedRecord, error]
}
