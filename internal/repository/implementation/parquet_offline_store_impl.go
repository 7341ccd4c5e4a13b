// FILE: internal/repository/implementation/parquet_offline_store_impl.go
// Parquet-backed historical store adapter
package implementation

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/puzpuzpuz/xsync/v3"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/contract"
)

const partitionFileName = "records.parquet"

// offlineRow is the physical layout: one row per (entity, timestamp, feature),
// values serialized to strings next to their declared type so scans can parse
// them back without consulting the catalog.
type offlineRow struct {
	EntityID        string `parquet:"entity_id,dict"`
	TimestampMillis int64  `parquet:"event_timestamp"`
	FeatureName     string `parquet:"feature_name,dict"`
	FeatureType     string `parquet:"feature_type,dict"`
	Value           string `parquet:"value"`
}

// ParquetOfflineStore lays partitions out as
// <root>/<group>/date=YYYY-MM-DD/records.parquet. Appends rewrite the
// partition file with rows for the same (entityId, timestamp) replaced, which
// keeps retried appends idempotent.
type ParquetOfflineStore struct {
	root  string
	locks *xsync.MapOf[string, *sync.Mutex] // one lock per partition file
}

func NewParquetOfflineStore(root string) (*ParquetOfflineStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &apperrors.StoreUnavailableError{Tier: "offline", Cause: err}
	}
	return &ParquetOfflineStore{
		root:  root,
		locks: xsync.NewMapOf[string, *sync.Mutex](),
	}, nil
}

var _ contract.OfflineStore = (*ParquetOfflineStore)(nil)

func partitionDate(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

func (s *ParquetOfflineStore) partitionPath(group, date string) string {
	return filepath.Join(s.root, group, "date="+date, partitionFileName)
}

// partitionLock returns the mutex for one partition file. Locks stay in the
// map for the life of the process; one mutex per group/date partition is the
// price of not racing evictions against writers.
func (s *ParquetOfflineStore) partitionLock(path string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(path, &sync.Mutex{})
	return lock
}

func (s *ParquetOfflineStore) Append(ctx context.Context, group string, record *entity.IngestedRecord) error {
	if err := ctx.Err(); err != nil {
		return &apperrors.StoreUnavailableError{Tier: "offline", Cause: err}
	}

	path := s.partitionPath(group, partitionDate(record.Timestamp))
	lock := s.partitionLock(path)
	lock.Lock()
	defer lock.Unlock()

	existing, err := readPartition(path)
	if err != nil {
		return err
	}

	// Drop rows for the same (entityId, timestamp) before re-adding them.
	millis := record.Timestamp.UTC().UnixMilli()
	rows := existing[:0]
	for _, r := range existing {
		if r.EntityID == record.EntityID && r.TimestampMillis == millis {
			continue
		}
		rows = append(rows, r)
	}

	names := make([]string, 0, len(record.Values))
	for featureName := range record.Values {
		names = append(names, featureName)
	}
	sort.Strings(names)
	for _, featureName := range names {
		v := record.Values[featureName]
		rows = append(rows, offlineRow{
			EntityID:        record.EntityID,
			TimestampMillis: millis,
			FeatureName:     featureName,
			FeatureType:     string(featureTypeOf(v)),
			Value:           v.StoreString(),
		})
	}

	return writePartition(path, rows)
}

// featureTypeOf maps a value variant back to the declared feature type the
// scan side needs for parsing. Categorical and text both round-trip through
// text, which is lossless at this boundary.
func featureTypeOf(v entity.FeatureValue) entity.FeatureType {
	switch v.Kind {
	case entity.ValueNumber:
		return entity.FeatureTypeNumerical
	case entity.ValueBool:
		return entity.FeatureTypeBoolean
	case entity.ValueTimestamp:
		return entity.FeatureTypeTimestamp
	case entity.ValueVector:
		return entity.FeatureTypeEmbedding
	}
	return entity.FeatureTypeText
}

func readPartition(path string) ([]offlineRow, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	rows, err := parquet.ReadFile[offlineRow](path)
	if err != nil {
		return nil, &apperrors.StoreUnavailableError{Tier: "offline", Cause: err}
	}
	return rows, nil
}

func writePartition(path string, rows []offlineRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &apperrors.StoreUnavailableError{Tier: "offline", Cause: err}
	}
	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		return &apperrors.StoreUnavailableError{Tier: "offline", Cause: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &apperrors.StoreUnavailableError{Tier: "offline", Cause: err}
	}
	return nil
}

// Scan prunes partitions by directory date before reading any file. The full
// matching set is merged and sorted by (entityId, timestamp) because rows for
// one entity spread across date partitions.
func (s *ParquetOfflineStore) Scan(ctx context.Context, group string, start, end *time.Time) iter.Seq2[*entity.IngestedRecord, error] {
	return func(yield func(*entity.IngestedRecord, error) bool) {
		records, err := s.collect(ctx, group, start, end)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (s *ParquetOfflineStore) collect(ctx context.Context, group string, start, end *time.Time) ([]*entity.IngestedRecord, error) {
	groupDir := filepath.Join(s.root, group)
	dirEntries, err := os.ReadDir(groupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.StoreUnavailableError{Tier: "offline", Cause: err}
	}

	var partitions []string
	for _, de := range dirEntries {
		if !de.IsDir() || !strings.HasPrefix(de.Name(), "date=") {
			continue
		}
		date := strings.TrimPrefix(de.Name(), "date=")
		if start != nil && date < partitionDate(*start) {
			continue
		}
		if end != nil && date > partitionDate(*end) {
			continue
		}
		partitions = append(partitions, de.Name())
	}
	sort.Strings(partitions)

	byKey := make(map[string]*entity.IngestedRecord)
	var keys []string
	for _, part := range partitions {
		if err := ctx.Err(); err != nil {
			return nil, &apperrors.StoreUnavailableError{Tier: "offline", Cause: err}
		}
		rows, err := readPartition(filepath.Join(groupDir, part, partitionFileName))
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			ts := time.UnixMilli(row.TimestampMillis).UTC()
			if start != nil && ts.Before(*start) {
				continue
			}
			if end != nil && ts.After(*end) {
				continue
			}
			key := fmt.Sprintf("%s\x00%020d", row.EntityID, row.TimestampMillis)
			rec, ok := byKey[key]
			if !ok {
				rec = &entity.IngestedRecord{
					EntityID:  row.EntityID,
					GroupName: group,
					Timestamp: ts,
					Values:    make(map[string]entity.FeatureValue),
				}
				byKey[key] = rec
				keys = append(keys, key)
			}
			v, err := entity.ParseStored(entity.FeatureType(row.FeatureType), row.Value)
			if err != nil {
				return nil, &apperrors.StoreUnavailableError{
					Tier:  "offline",
					Cause: fmt.Errorf("corrupt value for %s/%s: %w", row.EntityID, row.FeatureName, err),
				}
			}
			rec.Values[row.FeatureName] = v
		}
	}

	sort.Strings(keys) // entityId major, zero-padded millis minor
	records := make([]*entity.IngestedRecord, 0, len(keys))
	for _, key := range keys {
		records = append(records, byKey[key])
	}
	return records, nil
}
