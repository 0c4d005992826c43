package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethanbaker/integrations/pkg/integration"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation
const mysqlDuplicateEntry = 1062

// Store handles storage and retrieval of integrations using MySQL
type Store struct {
	db *gorm.DB
}

// NewStore creates a new integration store with MySQL connection
func NewStore(databaseURL string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := NewStoreFromDB(db)

	// Auto-migrate tables
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return store, nil
}

// NewStoreFromDB wraps an already opened connection without migrating
func NewStoreFromDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// migrate creates or updates the required database tables
func (s *Store) migrate() error {
	return s.db.AutoMigrate(&DefinitionModel{}, &UserIntegrationModel{})
}

/** ---- DEFINITIONS ---- */

// ListDefinitions returns every definition ordered by name
func (s *Store) ListDefinitions(ctx context.Context) ([]*integration.Definition, error) {
	var models []DefinitionModel
	if err := s.db.WithContext(ctx).Order("name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	defs := make([]*integration.Definition, len(models))
	for i := range models {
		defs[i] = models[i].toDefinition()
	}

	return defs, nil
}

// GetDefinition retrieves a definition by name
func (s *Store) GetDefinition(ctx context.Context, name string) (*integration.Definition, error) {
	var model DefinitionModel
	result := s.db.WithContext(ctx).Where("name = ?", name).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("definition '%s': %w", name, integration.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get definition: %w", result.Error)
	}

	return model.toDefinition(), nil
}

// InsertDefinition stores a new definition
func (s *Store) InsertDefinition(ctx context.Context, def *integration.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	model := &DefinitionModel{
		ID:                   uuid.NewString(),
		Name:                 def.Name,
		Options:              def.Options,
		SupportsFieldMapping: def.SupportsFieldMapping,
		ExternalFields:       def.ExternalFields,
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("definition '%s': %w", def.Name, integration.ErrConflict)
		}
		return fmt.Errorf("failed to create definition: %w", err)
	}

	return nil
}

/** ---- USER INTEGRATIONS ---- */

// GetIntegration retrieves a user's integration by name
func (s *Store) GetIntegration(ctx context.Context, userID, name string) (*integration.UserIntegration, error) {
	var model UserIntegrationModel
	result := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("integration '%s': %w", name, integration.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get integration: %w", result.Error)
	}

	return model.toUserIntegration(), nil
}

// ListIntegrations returns every integration the user has connected
func (s *Store) ListIntegrations(ctx context.Context, userID string) ([]*integration.UserIntegration, error) {
	var models []UserIntegrationModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("name").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}

	integrations := make([]*integration.UserIntegration, len(models))
	for i := range models {
		integrations[i] = models[i].toUserIntegration()
	}

	return integrations, nil
}

// InsertIntegration stores a connected integration.
// The unique (user_id, name) index makes a concurrent duplicate fail rather than overwrite.
func (s *Store) InsertIntegration(ctx context.Context, in *integration.UserIntegration) error {
	if in.UserID == "" {
		return fmt.Errorf("user_id cannot be empty")
	}
	if in.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	model := &UserIntegrationModel{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Name:          in.Name,
		Connected:     in.Connected,
		Options:       in.Options,
		FieldMappings: in.FieldMappings,
	}

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("integration '%s': %w", in.Name, integration.ErrConflict)
		}
		return fmt.Errorf("failed to create integration: %w", err)
	}

	return nil
}

// DeleteIntegration removes a user's integration by name
func (s *Store) DeleteIntegration(ctx context.Context, userID, name string) error {
	result := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).Delete(&UserIntegrationModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete integration: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("integration '%s': %w", name, integration.ErrNotFound)
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm.DB: %w", err)
	}
	return sqlDB.Close()
}

// isDuplicateKey reports whether err is a unique key violation
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
