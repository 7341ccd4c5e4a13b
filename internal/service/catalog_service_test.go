package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/entity"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/memory"
	"feature-store-be/pkg/lifecycle"
	"feature-store-be/pkg/transform"
)

// recordingEvents captures published events so tests can assert on them
// without a real pub/sub in the loop.
type recordingEvents struct {
	mu            sync.Mutex
	ingested      []RecordIngestedEvent
	statusChanges []StatusChangedEvent
}

func (e *recordingEvents) PublishRecordIngested(_ context.Context, evt RecordIngestedEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ingested = append(e.ingested, evt)
}

func (e *recordingEvents) PublishStatusChanged(_ context.Context, evt StatusChangedEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusChanges = append(e.statusChanges, evt)
}

func (e *recordingEvents) Consume(context.Context) error { return nil }

func newTestCatalog(t *testing.T) (ICatalogService, *recordingEvents) {
	t.Helper()
	events := &recordingEvents{}
	catalog, err := NewCatalogService(
		transform.NewEngine(transform.NewRegistry()),
		lifecycle.NewManager(),
		memory.NewPlanCache(),
		nil,
		events,
		logger.Noop(),
	)
	assert.NoError(t, err)
	return catalog, events
}

func float64Ptr(v float64) *float64 { return &v }

func customerGroup() *entity.FeatureGroup {
	return &entity.FeatureGroup{
		Name:   "customer_features",
		Entity: "customer",
		Features: []*entity.FeatureMetadata{
			{
				Name:       "total_purchases",
				Type:       entity.FeatureTypeNumerical,
				Entity:     "customer",
				Tags:       []string{"purchasing"},
				Validation: &entity.Validation{MinValue: float64Ptr(0), NotNull: true},
			},
			{
				Name:   "avg_order_value",
				Type:   entity.FeatureTypeNumerical,
				Entity: "customer",
				Transformation: &entity.Transformation{
					Name:           "avg_order_value_calc",
					SourceFeatures: []string{"total_spent", "total_purchases"},
					Kind:           entity.TransformExpression,
					Expression:     "total_spent / total_purchases",
				},
			},
		},
	}
}

func TestRegisterGroupAppliesDefaults(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	registered, err := catalog.RegisterGroup(context.Background(), customerGroup())
	assert.NoError(t, err)

	for _, meta := range registered.Features {
		assert.Equal(t, entity.StatusDraft, meta.Status)
		assert.Equal(t, "1.0.0", meta.Version)
		assert.False(t, meta.CreatedAt.IsZero())
		assert.False(t, meta.UpdatedAt.IsZero())
	}
	assert.False(t, registered.CreatedAt.IsZero())
}

func TestRegisterGroupRejectsDuplicateName(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	_, err = catalog.RegisterGroup(ctx, customerGroup())
	var dup *apperrors.DuplicateGroupError
	assert.True(t, errors.As(err, &dup))
}

func TestRegisterGroupRejectsDuplicateFeatureAcrossGroups(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	other := &entity.FeatureGroup{
		Name:   "customer_extras",
		Entity: "customer",
		Features: []*entity.FeatureMetadata{
			{Name: "total_purchases", Type: entity.FeatureTypeNumerical, Entity: "customer"},
		},
	}
	_, err = catalog.RegisterGroup(ctx, other)

	var dup *apperrors.DuplicateFeatureError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, "customer_features", dup.Group)
}

func TestRegisterGroupAllowsSameFeatureNameOnDifferentEntity(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	merchant := &entity.FeatureGroup{
		Name:   "merchant_features",
		Entity: "merchant",
		Features: []*entity.FeatureMetadata{
			{Name: "total_purchases", Type: entity.FeatureTypeNumerical, Entity: "merchant"},
		},
	}
	_, err = catalog.RegisterGroup(ctx, merchant)
	assert.NoError(t, err)
}

func TestRegisterGroupRejectsEntityMismatch(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	group := customerGroup()
	group.Features[0].Entity = "merchant"
	_, err := catalog.RegisterGroup(context.Background(), group)

	var mismatch *apperrors.EntityMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestRegisterGroupRejectsIllegalBirthStatus(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	group := customerGroup()
	group.Features[0].Status = entity.StatusArchived
	_, err := catalog.RegisterGroup(context.Background(), group)

	var transition *apperrors.InvalidTransitionError
	assert.True(t, errors.As(err, &transition))
	assert.Equal(t, "unregistered", transition.From)
}

func TestRegisterGroupWithCycleLeavesCatalogUnchanged(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	cyclic := &entity.FeatureGroup{
		Name:   "cyclic_features",
		Entity: "customer",
		Features: []*entity.FeatureMetadata{
			{
				Name:   "a",
				Type:   entity.FeatureTypeNumerical,
				Entity: "customer",
				Transformation: &entity.Transformation{
					Name: "a_calc", SourceFeatures: []string{"b"},
					Kind: entity.TransformExpression, Expression: "b + 1",
				},
			},
			{
				Name:   "b",
				Type:   entity.FeatureTypeNumerical,
				Entity: "customer",
				Transformation: &entity.Transformation{
					Name: "b_calc", SourceFeatures: []string{"a"},
					Kind: entity.TransformExpression, Expression: "a + 1",
				},
			},
		},
	}

	_, err := catalog.RegisterGroup(ctx, cyclic)
	var cycleErr *apperrors.CyclicDependencyError
	assert.True(t, errors.As(err, &cycleErr))

	// Nothing from the failed registration is visible.
	_, err = catalog.GetGroup(ctx, "cyclic_features")
	var notFound *apperrors.NotFoundError
	assert.True(t, errors.As(err, &notFound))
	_, err = catalog.GetFeature(ctx, "customer", "a")
	assert.True(t, errors.As(err, &notFound))
}

func TestGetGroupReturnsSnapshot(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	first, err := catalog.GetGroup(ctx, "customer_features")
	assert.NoError(t, err)
	first.Features[0].Name = "mutated"

	second, err := catalog.GetGroup(ctx, "customer_features")
	assert.NoError(t, err)
	assert.Equal(t, "total_purchases", second.Features[0].Name)
}

func TestListFeaturesFilters(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)
	_, err = catalog.RegisterGroup(ctx, &entity.FeatureGroup{
		Name:   "merchant_features",
		Entity: "merchant",
		Features: []*entity.FeatureMetadata{
			{Name: "settlement_days", Type: entity.FeatureTypeNumerical, Entity: "merchant", Status: entity.StatusActive},
		},
	})
	assert.NoError(t, err)

	all, err := catalog.ListFeatures(ctx, ListFilter{})
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	byEntity, err := catalog.ListFeatures(ctx, ListFilter{Entity: "merchant"})
	assert.NoError(t, err)
	assert.Len(t, byEntity, 1)
	assert.Equal(t, "settlement_days", byEntity[0].Name)

	byTag, err := catalog.ListFeatures(ctx, ListFilter{Tag: "purchasing"})
	assert.NoError(t, err)
	assert.Len(t, byTag, 1)

	byStatus, err := catalog.ListFeatures(ctx, ListFilter{Status: entity.StatusActive})
	assert.NoError(t, err)
	assert.Len(t, byStatus, 1)
}

func TestUpdateStatusPublishesEvent(t *testing.T) {
	catalog, events := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	meta, err := catalog.UpdateStatus(ctx, "customer", "total_purchases", entity.StatusActive)
	assert.NoError(t, err)
	assert.Equal(t, entity.StatusActive, meta.Status)

	assert.Len(t, events.statusChanges, 1)
	assert.Equal(t, "draft", events.statusChanges[0].From)
	assert.Equal(t, "active", events.statusChanges[0].To)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	_, err = catalog.UpdateStatus(ctx, "customer", "total_purchases", entity.StatusActive)
	assert.NoError(t, err)
	_, err = catalog.UpdateStatus(ctx, "customer", "total_purchases", entity.StatusDeprecated)
	assert.NoError(t, err)

	_, err = catalog.UpdateStatus(ctx, "customer", "total_purchases", entity.StatusActive)
	var transition *apperrors.InvalidTransitionError
	assert.True(t, errors.As(err, &transition))
}

func TestUpdateVersionMonotonic(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	meta, err := catalog.UpdateVersion(ctx, "customer", "total_purchases", "1.1.0")
	assert.NoError(t, err)
	assert.Equal(t, "1.1.0", meta.Version)

	_, err = catalog.UpdateVersion(ctx, "customer", "total_purchases", "1.0.5")
	var downgrade *apperrors.VersionDowngradeError
	assert.True(t, errors.As(err, &downgrade))
	assert.Equal(t, "1.1.0", downgrade.Current)

	_, err = catalog.UpdateVersion(ctx, "customer", "total_purchases", "1.1.0")
	assert.True(t, errors.As(err, &downgrade))

	_, err = catalog.UpdateVersion(ctx, "customer", "total_purchases", "not-a-version")
	var failure *apperrors.ValidationFailure
	assert.True(t, errors.As(err, &failure))
}

func TestPlanReturnsCompiledOrder(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	plan, err := catalog.Plan(ctx, "customer_features")
	assert.NoError(t, err)
	assert.Equal(t, []string{"total_purchases", "avg_order_value"}, plan.Order)

	_, err = catalog.Plan(ctx, "missing_group")
	var notFound *apperrors.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

// fakeRegistryStore mirrors groups in memory and can be told to fail saves,
// standing in for a database that is down mid-request.
type fakeRegistryStore struct {
	mu       sync.Mutex
	groups   []*entity.FeatureGroup
	failSave bool
}

func (s *fakeRegistryStore) SaveGroup(_ context.Context, group *entity.FeatureGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("registry store is down")
	}
	for i, existing := range s.groups {
		if existing.Name == group.Name {
			s.groups[i] = group.Clone()
			return nil
		}
	}
	s.groups = append(s.groups, group.Clone())
	return nil
}

func (s *fakeRegistryStore) LoadGroups(context.Context) ([]*entity.FeatureGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.FeatureGroup, 0, len(s.groups))
	for _, group := range s.groups {
		out = append(out, group.Clone())
	}
	return out, nil
}

func newTestCatalogWithStore(t *testing.T, store contract.RegistryStore) ICatalogService {
	t.Helper()
	catalog, err := NewCatalogService(
		transform.NewEngine(transform.NewRegistry()),
		lifecycle.NewManager(),
		memory.NewPlanCache(),
		store,
		&recordingEvents{},
		logger.Noop(),
	)
	assert.NoError(t, err)
	return catalog
}

func TestNewCatalogServiceRestoresRetiredFeatures(t *testing.T) {
	persisted := customerGroup()
	persisted.Features[0].Status = entity.StatusDeprecated
	persisted.Features[0].Version = "2.1.0"
	persisted.Features[1].Status = entity.StatusArchived
	store := &fakeRegistryStore{groups: []*entity.FeatureGroup{persisted}}

	catalog := newTestCatalogWithStore(t, store)

	deprecated, err := catalog.GetFeature(context.Background(), "customer", "total_purchases")
	assert.NoError(t, err)
	assert.Equal(t, entity.StatusDeprecated, deprecated.Status)
	assert.Equal(t, "2.1.0", deprecated.Version)

	archived, err := catalog.GetFeature(context.Background(), "customer", "avg_order_value")
	assert.NoError(t, err)
	assert.Equal(t, entity.StatusArchived, archived.Status)
}

func TestNewCatalogServiceRejectsCorruptPersistedStatus(t *testing.T) {
	persisted := customerGroup()
	persisted.Features[0].Status = entity.FeatureStatus("retired")
	store := &fakeRegistryStore{groups: []*entity.FeatureGroup{persisted}}

	_, err := NewCatalogService(
		transform.NewEngine(transform.NewRegistry()),
		lifecycle.NewManager(),
		memory.NewPlanCache(),
		store,
		&recordingEvents{},
		logger.Noop(),
	)
	var transition *apperrors.InvalidTransitionError
	assert.True(t, errors.As(err, &transition))
}

func TestListGroupsRegistrationOrder(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	second := &entity.FeatureGroup{
		Name:   "account_features",
		Entity: "account",
		Features: []*entity.FeatureMetadata{
			{Name: "balance", Type: entity.FeatureTypeNumerical, Entity: "account"},
		},
	}
	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)
	_, err = catalog.RegisterGroup(ctx, second)
	assert.NoError(t, err)

	groups, err := catalog.ListGroups(ctx)
	assert.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.Equal(t, "customer_features", groups[0].Name)
	assert.Equal(t, "account_features", groups[1].Name)

	// The listing is a snapshot; mutating it must not touch the catalog.
	groups[0].Features[0].Status = entity.StatusArchived
	kept, err := catalog.GetFeature(ctx, "customer", "total_purchases")
	assert.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, kept.Status)
}

func TestUpdateStatusPersistFailureRollsBack(t *testing.T) {
	store := &fakeRegistryStore{}
	catalog := newTestCatalogWithStore(t, store)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)
	before, err := catalog.GetFeature(ctx, "customer", "total_purchases")
	assert.NoError(t, err)

	store.failSave = true
	_, err = catalog.UpdateStatus(ctx, "customer", "total_purchases", entity.StatusActive)
	assert.Error(t, err)

	after, err := catalog.GetFeature(ctx, "customer", "total_purchases")
	assert.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, after.Status)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))
}

func TestUpdateVersionPersistFailureRollsBack(t *testing.T) {
	store := &fakeRegistryStore{}
	catalog := newTestCatalogWithStore(t, store)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)
	before, err := catalog.GetFeature(ctx, "customer", "total_purchases")
	assert.NoError(t, err)

	store.failSave = true
	_, err = catalog.UpdateVersion(ctx, "customer", "total_purchases", "2.0.0")
	assert.Error(t, err)

	after, err := catalog.GetFeature(ctx, "customer", "total_purchases")
	assert.NoError(t, err)
	assert.Equal(t, "1.0.0", after.Version)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))
}

func TestFeatureViewsCarryGroupName(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.RegisterGroup(ctx, customerGroup())
	assert.NoError(t, err)

	single, err := catalog.GetFeature(ctx, "customer", "total_purchases")
	assert.NoError(t, err)
	assert.Equal(t, "customer_features", single.Group)

	listed, err := catalog.ListFeatures(ctx, ListFilter{Entity: "customer"})
	assert.NoError(t, err)
	assert.Len(t, listed, 2)
	for _, view := range listed {
		assert.Equal(t, "customer_features", view.Group)
	}
}
