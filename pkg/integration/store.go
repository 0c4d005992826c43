package integration

import "context"

// DefinitionStore persists integration definitions
type DefinitionStore interface {
	Catalog
	InsertDefinition(ctx context.Context, def *Definition) error
}

// Store defines the interface for integration storage operations.
// Implementations must make insert and delete atomic with respect to their
// existence checks: InsertIntegration returns ErrConflict when the (user, name)
// pair already exists and DeleteIntegration returns ErrNotFound when it does not.
type Store interface {
	DefinitionStore

	GetIntegration(ctx context.Context, userID, name string) (*UserIntegration, error)
	ListIntegrations(ctx context.Context, userID string) ([]*UserIntegration, error)
	InsertIntegration(ctx context.Context, integration *UserIntegration) error
	DeleteIntegration(ctx context.Context, userID, name string) error
}
