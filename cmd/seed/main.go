// FILE: cmd/seed/main.go
package main

import (
	"context"
	"errors"
	"log"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/bootstrap"
	"feature-store-be/internal/config"
	"feature-store-be/internal/entity"
	"feature-store-be/pkg/database"

	"gorm.io/gorm"
)

func float64Ptr(v float64) *float64 { return &v }

func main() {
	cfg := config.Load()

	var gormDB *gorm.DB
	if cfg.Stores.RegistryDSN != "" {
		db, err := database.NewGormDBFromDSN(cfg.Stores.RegistryDSN)
		if err != nil {
			log.Fatalf("Error: Failed to connect to database: %v", err)
		}
		gormDB = db
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	ctx := context.Background()

	log.Println("Seeding feature groups...")

	group := &entity.FeatureGroup{
		Name:        "customer_features",
		Entity:      "customer",
		Description: "Purchase behaviour features keyed by customer id",
		Features: []*entity.FeatureMetadata{
			{
				Name:        "total_purchases",
				Type:        entity.FeatureTypeNumerical,
				Description: "Lifetime count of completed purchases",
				Owner:       "growth-team",
				Tags:        []string{"purchasing"},
				Validation: &entity.Validation{
					MinValue: float64Ptr(0),
					NotNull:  true,
				},
			},
			{
				Name:        "avg_order_value",
				Type:        entity.FeatureTypeNumerical,
				Description: "Average spend per order",
				Owner:       "growth-team",
				Tags:        []string{"purchasing"},
				Transformation: &entity.Transformation{
					Name:           "avg_order_value_calc",
					SourceFeatures: []string{"total_spent", "total_purchases"},
					Kind:           entity.TransformExpression,
					Expression:     "total_spent / total_purchases",
				},
			},
		},
	}

	if _, err := container.CatalogService.RegisterGroup(ctx, group); err != nil {
		var dup *apperrors.DuplicateGroupError
		if errors.As(err, &dup) {
			log.Printf("Group '%s' already exists, skipping registration", group.Name)
		} else {
			log.Fatalf("Error registering group '%s': %v", group.Name, err)
		}
	} else {
		log.Printf("Registered group: %s", group.Name)
	}

	log.Println("Seeding sample records...")

	samples := []struct {
		entityID string
		values   map[string]interface{}
	}{
		{"CUST001", map[string]interface{}{"total_purchases": 12, "total_spent": 1440.0}},
		{"CUST002", map[string]interface{}{"total_purchases": 3, "total_spent": 89.9}},
	}

	for _, s := range samples {
		record, err := container.IngestionService.Ingest(ctx, group.Name, s.entityID, s.values, nil)
		if err != nil {
			log.Printf("Error ingesting record for '%s': %v", s.entityID, err)
			continue
		}
		log.Printf("Ingested %s: %v", s.entityID, record.StringValues())
	}

	log.Println("Seeding completed!")
}
