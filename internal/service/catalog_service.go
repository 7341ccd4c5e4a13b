// FILE: internal/service/catalog_service.go
// Metadata catalog: feature group registration, lookup and lifecycle
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/entity"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/memory"
	"feature-store-be/pkg/lifecycle"
	"feature-store-be/pkg/transform"
)

// ListFilter narrows ListFeatures output. Zero values mean no filter.
type ListFilter struct {
	Entity string
	Tag    string
	Status entity.FeatureStatus
}

// FeatureView pairs a metadata snapshot with the name of its owning group.
type FeatureView struct {
	*entity.FeatureMetadata
	Group string
}

type ICatalogService interface {
	RegisterGroup(ctx context.Context, group *entity.FeatureGroup) (*entity.FeatureGroup, error)
	GetGroup(ctx context.Context, name string) (*entity.FeatureGroup, error)
	ListGroups(ctx context.Context) ([]*entity.FeatureGroup, error)
	GetFeature(ctx context.Context, entityName, featureName string) (*FeatureView, error)
	ListFeatures(ctx context.Context, filter ListFilter) ([]*FeatureView, error)
	UpdateStatus(ctx context.Context, entityName, featureName string, status entity.FeatureStatus) (*FeatureView, error)
	UpdateVersion(ctx context.Context, entityName, featureName, version string) (*FeatureView, error)
	// Plan returns the compiled plan for a group. The plan carries its own
	// metadata snapshot, so callers compute and validate without touching
	// the catalog lock again.
	Plan(ctx context.Context, groupName string) (*transform.Plan, error)
}

// catalogService owns every FeatureGroup/FeatureMetadata instance. All
// mutation happens under one mutex; registration and lifecycle changes are
// administrative and infrequent, so a global lock is fine. The ingestion path
// only takes the lock long enough to fetch an immutable plan.
type catalogService struct {
	mu         sync.RWMutex
	groups     map[string]*entity.FeatureGroup
	groupOrder []string
	featureIdx map[string]string // "entity/name" -> owning group name

	plans     *memory.PlanCache
	engine    *transform.Engine
	lifecycle *lifecycle.Manager
	store     contract.RegistryStore // nil => memory only
	events    IEventService
	logger    logger.ILogger
}

func NewCatalogService(
	engine *transform.Engine,
	lifecycleMgr *lifecycle.Manager,
	plans *memory.PlanCache,
	store contract.RegistryStore,
	events IEventService,
	sysLogger logger.ILogger,
) (ICatalogService, error) {
	c := &catalogService{
		groups:     make(map[string]*entity.FeatureGroup),
		featureIdx: make(map[string]string),
		plans:      plans,
		engine:     engine,
		lifecycle:  lifecycleMgr,
		store:      store,
		events:     events,
		logger:     sysLogger,
	}

	if store != nil {
		persisted, err := store.LoadGroups(context.Background())
		if err != nil {
			return nil, fmt.Errorf("loading persisted registry: %w", err)
		}
		for _, group := range persisted {
			if err := c.register(group, false); err != nil {
				return nil, fmt.Errorf("restoring group %q: %w", group.Name, err)
			}
		}
		if len(persisted) > 0 {
			sysLogger.Info("catalog", "Restored persisted feature groups", map[string]interface{}{"count": len(persisted)})
		}
	}

	return c, nil
}

func featureKey(entityName, featureName string) string {
	return entityName + "/" + featureName
}

func (c *catalogService) RegisterGroup(ctx context.Context, group *entity.FeatureGroup) (*entity.FeatureGroup, error) {
	if err := c.register(group, true); err != nil {
		return nil, err
	}
	c.logger.Info("catalog", "Feature group registered", map[string]interface{}{
		"group":    group.Name,
		"entity":   group.Entity,
		"features": len(group.Features),
	})
	return c.GetGroup(ctx, group.Name)
}

// register validates, compiles and commits a group. Nothing is mutated until
// every check passed, so a failed registration leaves the catalog unchanged.
// fresh distinguishes caller registrations from boot-time restores: only fresh
// groups are persisted and held to the birth-status rule; a restored feature
// keeps whatever status it legally reached before the restart.
func (c *catalogService) register(group *entity.FeatureGroup, fresh bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.groups[group.Name]; exists {
		return &apperrors.DuplicateGroupError{Group: group.Name}
	}
	for _, meta := range group.Features {
		if meta.Entity != group.Entity {
			return &apperrors.EntityMismatchError{
				Group:         group.Name,
				Feature:       meta.Name,
				GroupEntity:   group.Entity,
				FeatureEntity: meta.Entity,
			}
		}
		if owner, taken := c.featureIdx[featureKey(meta.Entity, meta.Name)]; taken {
			return &apperrors.DuplicateFeatureError{Entity: meta.Entity, Feature: meta.Name, Group: owner}
		}
		if !meta.Type.Valid() {
			return &apperrors.InvalidTransformationError{
				Feature: meta.Name,
				Reason:  fmt.Sprintf("unknown feature type %q", meta.Type),
			}
		}
		if fresh {
			switch meta.Status {
			case "", entity.StatusDraft, entity.StatusActive:
			default:
				// Only DRAFT or ACTIVE are legal birth states.
				return &apperrors.InvalidTransitionError{
					Feature: meta.Name,
					From:    "unregistered",
					To:      string(meta.Status),
				}
			}
		} else if meta.Status != "" && !meta.Status.Valid() {
			return &apperrors.InvalidTransitionError{
				Feature: meta.Name,
				From:    "unregistered",
				To:      string(meta.Status),
			}
		}
	}

	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	for _, meta := range group.Features {
		if meta.Status == "" {
			meta.Status = entity.StatusDraft
		}
		if meta.Version == "" {
			meta.Version = "1.0.0"
		} else if _, err := semver.NewVersion(meta.Version); err != nil {
			return &apperrors.ValidationFailure{Feature: meta.Name, Reason: "version is not a semantic version"}
		}
		if meta.CreatedAt.IsZero() {
			meta.CreatedAt = now
		}
		if meta.UpdatedAt.IsZero() {
			meta.UpdatedAt = now
		}
	}

	// Cycle detection and expression compilation happen here, once, before
	// the group becomes visible.
	plan, err := c.engine.Compile(group)
	if err != nil {
		return err
	}

	if fresh && c.store != nil {
		if err := c.store.SaveGroup(context.Background(), group); err != nil {
			return fmt.Errorf("persisting group %q: %w", group.Name, err)
		}
	}

	c.groups[group.Name] = group
	c.groupOrder = append(c.groupOrder, group.Name)
	for _, meta := range group.Features {
		c.featureIdx[featureKey(meta.Entity, meta.Name)] = group.Name
	}
	c.plans.Save(group.Name, plan)
	return nil
}

func (c *catalogService) GetGroup(ctx context.Context, name string) (*entity.FeatureGroup, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	group, ok := c.groups[name]
	if !ok {
		return nil, &apperrors.NotFoundError{Kind: "group", Name: name}
	}
	return group.Clone(), nil
}

// ListGroups returns every registered group in registration order.
func (c *catalogService) ListGroups(ctx context.Context) ([]*entity.FeatureGroup, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	groups := make([]*entity.FeatureGroup, 0, len(c.groupOrder))
	for _, name := range c.groupOrder {
		groups = append(groups, c.groups[name].Clone())
	}
	return groups, nil
}

func (c *catalogService) GetFeature(ctx context.Context, entityName, featureName string) (*FeatureView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, group, err := c.findLocked(entityName, featureName)
	if err != nil {
		return nil, err
	}
	return &FeatureView{FeatureMetadata: meta.Clone(), Group: group.Name}, nil
}

// findLocked returns the catalog-owned metadata and its group. Callers hold
// the lock.
func (c *catalogService) findLocked(entityName, featureName string) (*entity.FeatureMetadata, *entity.FeatureGroup, error) {
	groupName, ok := c.featureIdx[featureKey(entityName, featureName)]
	if !ok {
		return nil, nil, &apperrors.NotFoundError{Kind: "feature", Name: featureKey(entityName, featureName)}
	}
	group := c.groups[groupName]
	meta := group.Feature(featureName)
	if meta == nil {
		return nil, nil, &apperrors.NotFoundError{Kind: "feature", Name: featureKey(entityName, featureName)}
	}
	return meta, group, nil
}

func (c *catalogService) ListFeatures(ctx context.Context, filter ListFilter) ([]*FeatureView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*FeatureView, 0)
	for _, groupName := range c.groupOrder {
		for _, meta := range c.groups[groupName].Features {
			if filter.Entity != "" && meta.Entity != filter.Entity {
				continue
			}
			if filter.Tag != "" && !meta.HasTag(filter.Tag) {
				continue
			}
			if filter.Status != "" && meta.Status != filter.Status {
				continue
			}
			result = append(result, &FeatureView{FeatureMetadata: meta.Clone(), Group: groupName})
		}
	}
	return result, nil
}

func (c *catalogService) UpdateStatus(ctx context.Context, entityName, featureName string, status entity.FeatureStatus) (*FeatureView, error) {
	c.mu.Lock()
	meta, group, err := c.findLocked(entityName, featureName)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	from := meta.Status
	fromUpdated := meta.UpdatedAt
	if err := c.lifecycle.Transition(meta, status); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	if c.store != nil {
		if err := c.store.SaveGroup(ctx, group); err != nil {
			// Roll the in-memory transition back so catalog and mirror agree.
			meta.Status = from
			meta.UpdatedAt = fromUpdated
			c.mu.Unlock()
			return nil, fmt.Errorf("persisting group %q: %w", group.Name, err)
		}
	}
	result := &FeatureView{FeatureMetadata: meta.Clone(), Group: group.Name}
	c.mu.Unlock()

	c.events.PublishStatusChanged(ctx, StatusChangedEvent{
		Entity:  entityName,
		Feature: featureName,
		From:    string(from),
		To:      string(status),
	})
	c.logger.Info("catalog", "Feature status changed", map[string]interface{}{
		"feature": featureKey(entityName, featureName),
		"from":    string(from),
		"to":      string(status),
	})
	return result, nil
}

func (c *catalogService) UpdateVersion(ctx context.Context, entityName, featureName, version string) (*FeatureView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta, group, err := c.findLocked(entityName, featureName)
	if err != nil {
		return nil, err
	}

	next, err := semver.NewVersion(version)
	if err != nil {
		return nil, &apperrors.ValidationFailure{Feature: featureName, Reason: "version is not a semantic version"}
	}
	current, err := semver.NewVersion(meta.Version)
	if err != nil {
		return nil, fmt.Errorf("stored version %q is corrupt: %w", meta.Version, err)
	}
	if !next.GreaterThan(current) {
		return nil, &apperrors.VersionDowngradeError{
			Feature: featureName,
			Current: meta.Version,
			Given:   version,
		}
	}

	prev := meta.Version
	prevUpdated := meta.UpdatedAt
	meta.Version = version
	c.lifecycle.Touch(meta)

	if c.store != nil {
		if err := c.store.SaveGroup(ctx, group); err != nil {
			meta.Version = prev
			meta.UpdatedAt = prevUpdated
			return nil, fmt.Errorf("persisting group %q: %w", group.Name, err)
		}
	}
	return &FeatureView{FeatureMetadata: meta.Clone(), Group: group.Name}, nil
}

func (c *catalogService) Plan(ctx context.Context, groupName string) (*transform.Plan, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if plan, ok := c.plans.Get(groupName); ok {
		return plan, nil
	}
	return nil, &apperrors.NotFoundError{Kind: "group", Name: groupName}
}
