// FILE: cmd/rest/main.go
package main

import (
	"context"
	"log"

	"feature-store-be/internal/bootstrap"
	"feature-store-be/internal/config"
	"feature-store-be/internal/server"
	"feature-store-be/internal/tracer"
	"feature-store-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Registry Mirror (optional)
	var gormDB *gorm.DB
	if cfg.Stores.RegistryDSN != "" {
		db, err := database.NewGormDBFromDSN(cfg.Stores.RegistryDSN)
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	} else {
		log.Println("REGISTRY_DSN not set, running with in-memory catalog only")
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	go func() {
		log.Println("Background: Starting Event Audit Consumer...")
		if err := container.EventService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
