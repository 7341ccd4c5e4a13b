// FILE: internal/bootstrap/container.go
package bootstrap

import (
	"log"

	"feature-store-be/internal/config"
	"feature-store-be/internal/controller"
	"feature-store-be/internal/mapper"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/implementation"
	"feature-store-be/internal/repository/memory"
	"feature-store-be/internal/service"
	"feature-store-be/pkg/lifecycle"
	"feature-store-be/pkg/transform"
	"feature-store-be/pkg/validate"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	RegistryController controller.IRegistryController
	ServingController  controller.IServingController
	HealthController   controller.IHealthController

	// Background Services (Exposed for main.go to run)
	EventService service.IEventService

	// Services (Exposed for cmd/seed)
	CatalogService   service.ICatalogService
	IngestionService service.IIngestionService

	// Exposed so cmd/seed and tests can register native transformations.
	TransformRegistry *transform.Registry

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	eventService := service.NewEventService(pubSub, sysLogger)

	// 3. Store Adapters
	redisOpts, err := redis.ParseURL(cfg.Stores.RedisURL)
	if err != nil {
		log.Printf("[WARN] Invalid REDIS_URL %q, falling back to localhost: %v", cfg.Stores.RedisURL, err)
		redisOpts = &redis.Options{Addr: "localhost:6379"}
	}
	onlineStore := implementation.NewRedisOnlineStore(redis.NewClient(redisOpts))

	offlineStore, err := implementation.NewParquetOfflineStore(cfg.Stores.OfflineStorePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize offline store at %s: %v", cfg.Stores.OfflineStorePath, err)
	}

	// The registry mirror is optional: without a DSN the catalog is memory only.
	var registryStore contract.RegistryStore
	if db != nil {
		registryStore, err = implementation.NewGormRegistryStore(db)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize registry store: %v", err)
		}
	}

	// 4. Engines
	transformRegistry := transform.NewRegistry()
	transformEngine := transform.NewEngine(transformRegistry)
	validationEngine := validate.NewEngine()
	lifecycleManager := lifecycle.NewManager()
	planCache := memory.NewPlanCache()

	// 5. Services
	catalogService, err := service.NewCatalogService(
		transformEngine,
		lifecycleManager,
		planCache,
		registryStore,
		eventService,
		sysLogger,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to restore feature catalog: %v", err)
	}

	ingestionService := service.NewIngestionService(
		catalogService,
		transformEngine,
		validationEngine,
		onlineStore,
		offlineStore,
		eventService,
		sysLogger,
	)

	// 6. Controllers
	featureMapper := mapper.NewFeatureMapper()

	return &Container{
		RegistryController: controller.NewRegistryController(catalogService, featureMapper),
		ServingController:  controller.NewServingController(ingestionService),
		HealthController:   controller.NewHealthController(onlineStore),
		EventService:       eventService,
		CatalogService:     catalogService,
		IngestionService:   ingestionService,
		TransformRegistry:  transformRegistry,
		Logger:             sysLogger,
	}
}
