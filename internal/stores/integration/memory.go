package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethanbaker/integrations/pkg/integration"
)

// InMemoryStore provides an in-memory implementation of integration.Store
type InMemoryStore struct {
	definitions  map[string]*integration.Definition
	integrations map[string]map[string]*integration.UserIntegration // user id -> name -> instance
	mutex        sync.RWMutex
}

// NewInMemoryStore creates a new in-memory integration store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		definitions:  make(map[string]*integration.Definition),
		integrations: make(map[string]map[string]*integration.UserIntegration),
	}
}

/** ---- DEFINITIONS ---- */

// ListDefinitions returns every definition sorted by name
func (s *InMemoryStore) ListDefinitions(ctx context.Context) ([]*integration.Definition, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	defs := make([]*integration.Definition, 0, len(s.definitions))
	for _, def := range s.definitions {
		defs = append(defs, def.Clone())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	return defs, nil
}

// GetDefinition retrieves a definition by name
func (s *InMemoryStore) GetDefinition(ctx context.Context, name string) (*integration.Definition, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	def, exists := s.definitions[name]
	if !exists {
		return nil, fmt.Errorf("definition '%s': %w", name, integration.ErrNotFound)
	}

	return def.Clone(), nil
}

// InsertDefinition stores a new definition
func (s *InMemoryStore) InsertDefinition(ctx context.Context, def *integration.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.definitions[def.Name]; exists {
		return fmt.Errorf("definition '%s': %w", def.Name, integration.ErrConflict)
	}

	s.definitions[def.Name] = def.Clone()
	return nil
}

/** ---- USER INTEGRATIONS ---- */

// GetIntegration retrieves a user's integration by name
func (s *InMemoryStore) GetIntegration(ctx context.Context, userID, name string) (*integration.UserIntegration, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	in, exists := s.integrations[userID][name]
	if !exists {
		return nil, fmt.Errorf("integration '%s': %w", name, integration.ErrNotFound)
	}

	// Return a copy to avoid external mutations
	return in.Clone(), nil
}

// ListIntegrations returns every integration the user has connected
func (s *InMemoryStore) ListIntegrations(ctx context.Context, userID string) ([]*integration.UserIntegration, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	integrations := make([]*integration.UserIntegration, 0, len(s.integrations[userID]))
	for _, in := range s.integrations[userID] {
		integrations = append(integrations, in.Clone())
	}
	sort.Slice(integrations, func(i, j int) bool { return integrations[i].Name < integrations[j].Name })

	return integrations, nil
}

// InsertIntegration stores a connected integration
func (s *InMemoryStore) InsertIntegration(ctx context.Context, in *integration.UserIntegration) error {
	if in.UserID == "" {
		return fmt.Errorf("user_id cannot be empty")
	}
	if in.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	byName, ok := s.integrations[in.UserID]
	if !ok {
		byName = make(map[string]*integration.UserIntegration)
		s.integrations[in.UserID] = byName
	}

	if _, exists := byName[in.Name]; exists {
		return fmt.Errorf("integration '%s': %w", in.Name, integration.ErrConflict)
	}

	// Create a copy to avoid shared references
	byName[in.Name] = in.Clone()
	return nil
}

// DeleteIntegration removes a user's integration by name
func (s *InMemoryStore) DeleteIntegration(ctx context.Context, userID, name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	byName := s.integrations[userID]
	if _, exists := byName[name]; !exists {
		return fmt.Errorf("integration '%s': %w", name, integration.ErrNotFound)
	}

	delete(byName, name)
	if len(byName) == 0 {
		delete(s.integrations, userID)
	}

	return nil
}
