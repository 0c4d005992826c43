package integrations_module

import (
	"context"
	"fmt"
	"io"
	"time"

	integration_store "github.com/ethanbaker/integrations/internal/stores/integration"
	"github.com/ethanbaker/integrations/internal/stores/lock"
	"github.com/ethanbaker/integrations/pkg/integration"
	"github.com/ethanbaker/integrations/pkg/utils"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// IntegrationService wraps the integration manager for the HTTP handlers
type IntegrationService struct {
	manager *integration.Manager
	logger  *zap.Logger
	closers []io.Closer
}

var integrationService *IntegrationService

// NewIntegrationService creates a service around an existing manager
func NewIntegrationService(manager *integration.Manager, logger *zap.Logger) *IntegrationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IntegrationService{
		manager: manager,
		logger:  logger,
	}
}

// SetService replaces the service used by the handlers
func SetService(s *IntegrationService) {
	integrationService = s
}

/** ---- INIT ---- */

// Init builds the store, catalog, locker and manager from config and installs the service
func Init(cfg *utils.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	service := &IntegrationService{logger: logger}

	// Create MySQL config
	dbConfig := mysql.Config{
		User:      cfg.Get("MYSQL_USER"),
		Passwd:    cfg.Get("MYSQL_ROOT_PASSWORD"),
		Net:       "tcp",
		Addr:      fmt.Sprintf("%s:%s", cfg.Get("MYSQL_HOST"), cfg.GetWithDefault("MYSQL_PORT", "3306")),
		DBName:    cfg.Get("MYSQL_DATABASE"),
		ParseTime: true,
	}

	// Create store
	var store integration.Store
	if dbConfig.DBName != "" {
		sqlStore, err := integration_store.NewStore(dbConfig.FormatDSN())
		if err != nil {
			return err
		}
		service.closers = append(service.closers, sqlStore)
		store = sqlStore
	} else {
		// Fallback to in-memory store
		logger.Warn("MYSQL_DATABASE not set, using in-memory store (data will not persist across restarts)")
		store = integration_store.NewInMemoryStore()
	}

	// Load catalog and seed the store with its definitions
	contacts := integration.NewStaticContactSchema()
	if path := cfg.Get("CATALOG_PATH"); path != "" {
		registry, schema, err := integration.LoadCatalogFile(path)
		if err != nil {
			return err
		}
		contacts = schema

		seeded := 0
		if cfg.GetBoolWithDefault("SEED_CATALOG", true) {
			if seeded, err = integration.SeedDefinitions(ctx, store, registry); err != nil {
				return err
			}
		}
		logger.Info("catalog loaded", zap.String("path", path), zap.Int("definitions", registry.Len()), zap.Int("seeded", seeded))
	} else {
		logger.Warn("CATALOG_PATH not set, starting with the definitions already in the store")
	}

	if fields := cfg.GetList("CONTACT_FIELDS"); len(fields) > 0 {
		contacts = integration.NewStaticContactSchema(fields...)
	}

	// Pick a locker, distributed when redis is configured
	var locker integration.Locker = integration.NewKeyedMutex()
	if addr := cfg.Get("REDIS_ADDR"); addr != "" {
		redisLocker, err := lock.NewRedisLocker(ctx, &lock.RedisOptions{
			Addr:     addr,
			Password: cfg.Get("REDIS_PASSWORD"),
			TTL:      time.Duration(cfg.GetIntWithDefault("LOCK_TTL_SECONDS", 30)) * time.Second,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		service.closers = append(service.closers, redisLocker)
		locker = redisLocker
	}

	// Create manager
	manager, err := integration.NewManager(&integration.ManagerOptions{
		Store:    store,
		Contacts: contacts,
		Locker:   locker,
		Logger:   logger.Named("integration"),
	})
	if err != nil {
		return err
	}

	service.manager = manager
	integrationService = service
	return nil
}

/** ---- SERVICE METHODS ---- */

// Stop releases the store and locker connections
func (s *IntegrationService) Stop() {
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil {
			s.logger.Warn("failed to close resource", zap.Error(err))
		}
	}
}

// Stop stops the installed service, if any
func Stop() {
	if integrationService != nil {
		integrationService.Stop()
	}
}
