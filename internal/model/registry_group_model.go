// FILE: internal/model/registry_group_model.go
// GORM model mirroring registered feature groups
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RegistryGroup stores one registered feature group as a JSON document. The
// in-memory catalog is the source of truth; this table only makes it survive
// restarts.
type RegistryGroup struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name       string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	Entity     string         `gorm:"type:varchar(255);not null"`
	Definition datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (RegistryGroup) TableName() string {
	return "registry_groups"
}
