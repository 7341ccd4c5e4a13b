// FILE: internal/repository/implementation/gorm_registry_store_impl.go
// GORM-backed registry persistence hook
package implementation

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/model"
	"feature-store-be/internal/repository/contract"
)

type GormRegistryStore struct {
	db *gorm.DB
}

func NewGormRegistryStore(db *gorm.DB) (contract.RegistryStore, error) {
	if err := db.AutoMigrate(&model.RegistryGroup{}); err != nil {
		return nil, err
	}
	return &GormRegistryStore{db: db}, nil
}

// SaveGroup upserts on the group name so status/version updates rewrite the
// stored document.
func (s *GormRegistryStore) SaveGroup(ctx context.Context, group *entity.FeatureGroup) error {
	payload, err := json.Marshal(group)
	if err != nil {
		return err
	}
	row := model.RegistryGroup{
		Name:       group.Name,
		Entity:     group.Entity,
		Definition: payload,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"entity", "definition", "updated_at"}),
		}).
		Create(&row).Error
}

// LoadGroups returns every stored group in registration order.
func (s *GormRegistryStore) LoadGroups(ctx context.Context) ([]*entity.FeatureGroup, error) {
	var rows []model.RegistryGroup
	if err := s.db.WithContext(ctx).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	groups := make([]*entity.FeatureGroup, 0, len(rows))
	for _, row := range rows {
		var group entity.FeatureGroup
		if err := json.Unmarshal(row.Definition, &group); err != nil {
			return nil, err
		}
		groups = append(groups, &group)
	}
	return groups, nil
}
