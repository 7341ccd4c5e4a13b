// FILE: internal/service/ingestion_service.go
// Ingestion coordinator: transform, validate, dual-tier write, reads
package service

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/entity"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/pkg/transform"
	"feature-store-be/pkg/validate"
)

type IIngestionService interface {
	// Ingest computes, validates and writes one record. On a partial write
	// (online ok, historical failed) the record is returned together with a
	// PartialWriteError so the caller can retry the append idempotently.
	Ingest(ctx context.Context, groupName, entityID string, raw map[string]interface{}, ts *time.Time) (*entity.IngestedRecord, error)
	GetOnlineFeatures(ctx context.Context, groupName, entityID string, names []string) (map[string]string, error)
	GetHistoricalFeatures(ctx context.Context, groupName string, start, end *time.Time) (iter.Seq2[*entity.IngestedRecord, error], error)
}

// ingestionService is stateless per call. Concurrent ingestions of distinct
// (group, entityId) keys proceed in parallel; writes to the same key are
// serialized through a per-key mutex so each record lands in full.
type ingestionService struct {
	catalog   ICatalogService
	engine    *transform.Engine
	validator *validate.Engine
	online    contract.OnlineStore
	offline   contract.OfflineStore
	events    IEventService
	logger    logger.ILogger
	keyLocks  *xsync.MapOf[string, *sync.Mutex]
}

func NewIngestionService(
	catalog ICatalogService,
	engine *transform.Engine,
	validator *validate.Engine,
	online contract.OnlineStore,
	offline contract.OfflineStore,
	events IEventService,
	sysLogger logger.ILogger,
) IIngestionService {
	return &ingestionService{
		catalog:   catalog,
		engine:    engine,
		validator: validator,
		online:    online,
		offline:   offline,
		events:    events,
		logger:    sysLogger,
		keyLocks:  xsync.NewMapOf[string, *sync.Mutex](),
	}
}

// lockKey returns the mutex serializing writes for one (group, entityId).
// Locks are never evicted, so the map grows with the number of distinct keys
// ever ingested; eviction would race with in-flight holders, and a bare mutex
// per key is small enough that entity cardinality bounds the cost.
func (s *ingestionService) lockKey(groupName, entityID string) *sync.Mutex {
	lock, _ := s.keyLocks.LoadOrStore(groupName+"\x00"+entityID, &sync.Mutex{})
	return lock
}

func (s *ingestionService) Ingest(ctx context.Context, groupName, entityID string, raw map[string]interface{}, ts *time.Time) (*entity.IngestedRecord, error) {
	// Brief catalog read; the plan is immutable so everything after this
	// line runs without any catalog involvement.
	plan, err := s.catalog.Plan(ctx, groupName)
	if err != nil {
		return nil, err
	}

	values, err := s.engine.Evaluate(plan, raw)
	if err != nil {
		return nil, err
	}

	// All-or-nothing: the first constraint violation aborts the record
	// before anything touches a store.
	for _, featureName := range plan.Order {
		meta := plan.Group.Feature(featureName)
		if err := s.validator.Check(meta, values[featureName], true); err != nil {
			return nil, err
		}
	}

	timestamp := time.Now().UTC()
	if ts != nil {
		timestamp = ts.UTC()
	}
	record := &entity.IngestedRecord{
		EntityID:  entityID,
		GroupName: groupName,
		Timestamp: timestamp,
		Values:    values,
	}

	lock := s.lockKey(groupName, entityID)
	lock.Lock()
	defer lock.Unlock()

	// Online first: serving freshness wins. No distributed transaction
	// spans the tiers; a failed append below leaves the online value
	// visible, which is the accepted consistency window.
	if err := s.online.Write(ctx, groupName, entityID, record.StringValues()); err != nil {
		return nil, err
	}

	if err := s.offline.Append(ctx, groupName, record); err != nil {
		s.logger.Warn("ingestion", "Historical append failed after online write", map[string]interface{}{
			"group":  groupName,
			"entity": entityID,
			"error":  err.Error(),
		})
		s.events.PublishRecordIngested(ctx, RecordIngestedEvent{
			Group:        groupName,
			EntityID:     entityID,
			Timestamp:    timestamp,
			FeatureCount: len(values),
			PartialWrite: true,
		})
		return record, &apperrors.PartialWriteError{Group: groupName, EntityID: entityID, Cause: err}
	}

	s.events.PublishRecordIngested(ctx, RecordIngestedEvent{
		Group:        groupName,
		EntityID:     entityID,
		Timestamp:    timestamp,
		FeatureCount: len(values),
	})
	return record, nil
}

func (s *ingestionService) GetOnlineFeatures(ctx context.Context, groupName, entityID string, names []string) (map[string]string, error) {
	plan, err := s.catalog.Plan(ctx, groupName)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if plan.Group.Feature(n) == nil {
			return nil, &apperrors.UnknownFeatureError{Group: groupName, Feature: n}
		}
	}

	values, found, err := s.online.Read(ctx, groupName, entityID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &apperrors.NotFoundError{Kind: "record", Name: groupName + "/" + entityID}
	}

	if len(names) == 0 {
		return values, nil
	}
	projected := make(map[string]string, len(names))
	for _, n := range names {
		if v, ok := values[n]; ok {
			projected[n] = v
		}
	}
	return projected, nil
}

func (s *ingestionService) GetHistoricalFeatures(ctx context.Context, groupName string, start, end *time.Time) (iter.Seq2[*entity.IngestedRecord, error], error) {
	if _, err := s.catalog.Plan(ctx, groupName); err != nil {
		return nil, err
	}
	return s.offline.Scan(ctx, groupName, start, end), nil
}
