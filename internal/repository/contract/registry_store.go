// FILE: internal/repository/contract/registry_store.go
// Persistence hook for the metadata catalog
package contract

import (
	"context"

	"feature-store-be/internal/entity"
)

// RegistryStore persists registered feature groups so the catalog survives a
// restart. The catalog remains the source of truth in memory; the store only
// mirrors it. A nil store leaves the catalog memory-only.
type RegistryStore interface {
	SaveGroup(ctx context.Context, group *entity.FeatureGroup) error
	LoadGroups(ctx context.Context) ([]*entity.FeatureGroup, error)
}
