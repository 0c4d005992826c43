package integration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Manager handles connecting and disconnecting user integrations
type Manager struct {
	store    Store
	contacts ContactSchema
	locker   Locker
	logger   *zap.Logger
}

// ManagerOptions contains the collaborators of the Manager
type ManagerOptions struct {
	Store    Store         // Required
	Contacts ContactSchema // Required when any definition supports field mapping
	Locker   Locker        // Defaults to an in-process KeyedMutex
	Logger   *zap.Logger   // Defaults to a no-op logger
}

// NewManager creates a new integration manager
func NewManager(opts *ManagerOptions) (*Manager, error) {
	if opts == nil || opts.Store == nil {
		return nil, fmt.Errorf("a valid store must be provided")
	}

	m := &Manager{
		store:    opts.Store,
		contacts: opts.Contacts,
		locker:   opts.Locker,
		logger:   opts.Logger,
	}

	if m.contacts == nil {
		m.contacts = NewStaticContactSchema()
	}
	if m.locker == nil {
		m.locker = NewKeyedMutex()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	return m, nil
}

/** ---- CATALOG ---- */

// Definitions returns every known definition
func (m *Manager) Definitions(ctx context.Context) ([]*Definition, error) {
	return m.store.ListDefinitions(ctx)
}

// Definition returns a single definition by name
func (m *Manager) Definition(ctx context.Context, name string) (*Definition, error) {
	return m.store.GetDefinition(ctx, name)
}

// CreateDefinition validates and stores a new definition
func (m *Manager) CreateDefinition(ctx context.Context, def *Definition) (*Definition, error) {
	if errs := ValidateDefinition(def); errs != nil {
		return nil, errs
	}

	if err := m.store.InsertDefinition(ctx, def); err != nil {
		return nil, err
	}

	m.logger.Info("definition created", zap.String("integration", def.Name))
	return def.Clone(), nil
}

/** ---- INSTANCES ---- */

// Get returns the user's stored instance of an integration
func (m *Manager) Get(ctx context.Context, userID, name string) (*UserIntegration, error) {
	return m.store.GetIntegration(ctx, userID, name)
}

// List returns every integration the user has connected
func (m *Manager) List(ctx context.Context, userID string) ([]*UserIntegration, error) {
	return m.store.ListIntegrations(ctx, userID)
}

// Connect validates the submitted configuration and stores a connected instance.
// Validation failures are returned as ValidationErrors and nothing is stored.
func (m *Manager) Connect(ctx context.Context, userID string, req *UserIntegration) (*UserIntegration, error) {
	if req == nil {
		return nil, ValidationErrors{{Key: "body", Message: MsgMalformedBody}}
	}

	unlock, err := m.locker.Lock(ctx, LockKey(userID, req.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to lock integration '%s': %w", req.Name, err)
	}
	defer unlock()

	// Resolve definition
	def, err := m.store.GetDefinition(ctx, req.Name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			m.logger.Info("connect rejected, definition not found", zap.String("user_id", userID), zap.String("integration", req.Name))
		}
		return nil, err
	}

	// Validate options and mappings together so every failing field is reported
	errs := ValidateOptions(def, req.Options)

	if def.SupportsFieldMapping {
		contactFields, err := m.contacts.ContactFields(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load contact fields: %w", err)
		}
		errs = append(errs, ValidateFieldMapping(req.FieldMappings, contactFields, def.ExternalFieldSet())...)
	} else if len(req.FieldMappings) > 0 {
		errs = append(errs, FieldError{Key: ScopeFieldMappings, Message: MsgMappingNotSupported})
	}

	if len(errs) > 0 {
		m.logger.Info("connect rejected, validation failed",
			zap.String("user_id", userID),
			zap.String("integration", def.Name),
			zap.Strings("fields", fieldPaths(errs)),
		)
		return nil, errs
	}

	// Store the connected instance
	connected := &UserIntegration{
		UserID:    userID,
		Name:      def.Name,
		Connected: true,
		Options:   req.Options.Clone(),
	}
	if def.SupportsFieldMapping {
		connected.FieldMappings = req.FieldMappings.Clone()
		if connected.FieldMappings == nil {
			connected.FieldMappings = FieldMapping{}
		}
	}

	if err := m.store.InsertIntegration(ctx, connected); err != nil {
		if errors.Is(err, ErrConflict) {
			m.logger.Info("connect rejected, already connected", zap.String("user_id", userID), zap.String("integration", def.Name))
		}
		return nil, err
	}

	m.logger.Info("integration connected", zap.String("user_id", userID), zap.String("integration", def.Name))
	return connected.Clone(), nil
}

// Disconnect removes the user's instance of an integration.
// Returns ErrNotFound when the user has no connected instance.
func (m *Manager) Disconnect(ctx context.Context, userID, name string) error {
	unlock, err := m.locker.Lock(ctx, LockKey(userID, name))
	if err != nil {
		return fmt.Errorf("failed to lock integration '%s': %w", name, err)
	}
	defer unlock()

	if err := m.store.DeleteIntegration(ctx, userID, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			m.logger.Info("disconnect rejected, "+m.absenceReason(ctx, name), zap.String("user_id", userID), zap.String("integration", name))
		}
		return err
	}

	m.logger.Info("integration disconnected", zap.String("user_id", userID), zap.String("integration", name))
	return nil
}

// absenceReason tells an unknown integration apart from one that is not connected
func (m *Manager) absenceReason(ctx context.Context, name string) string {
	if _, err := m.store.GetDefinition(ctx, name); errors.Is(err, ErrNotFound) {
		return "definition not found"
	}
	return "integration not connected"
}

func fieldPaths(errs ValidationErrors) []string {
	paths := make([]string, 0, len(errs))
	for _, e := range errs {
		paths = append(paths, e.Path())
	}
	return paths
}
