package integration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog lists the integration definitions available to users
type Catalog interface {
	ListDefinitions(ctx context.Context) ([]*Definition, error)
	GetDefinition(ctx context.Context, name string) (*Definition, error)
}

// Registry is a read-only, in-memory Catalog built once at startup
type Registry struct {
	definitions map[string]*Definition
	names       []string
}

// NewRegistry creates a registry from the given definitions
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{
		definitions: make(map[string]*Definition, len(defs)),
		names:       make([]string, 0, len(defs)),
	}

	for _, def := range defs {
		if errs := ValidateDefinition(def); errs != nil {
			return nil, fmt.Errorf("invalid definition '%s': %w", nameOf(def), errs)
		}
		if _, exists := r.definitions[def.Name]; exists {
			return nil, fmt.Errorf("duplicate definition '%s': %w", def.Name, ErrConflict)
		}

		r.definitions[def.Name] = def.Clone()
		r.names = append(r.names, def.Name)
	}

	sort.Strings(r.names)
	return r, nil
}

// ListDefinitions returns every definition sorted by name
func (r *Registry) ListDefinitions(ctx context.Context) ([]*Definition, error) {
	defs := make([]*Definition, 0, len(r.names))
	for _, name := range r.names {
		defs = append(defs, r.definitions[name].Clone())
	}
	return defs, nil
}

// GetDefinition returns the definition with the given name
func (r *Registry) GetDefinition(ctx context.Context, name string) (*Definition, error) {
	def, ok := r.definitions[name]
	if !ok {
		return nil, fmt.Errorf("definition '%s': %w", name, ErrNotFound)
	}
	return def.Clone(), nil
}

// Len returns the number of definitions
func (r *Registry) Len() int {
	return len(r.names)
}

// ContactSchema provides the set of fields on a user's contact records
type ContactSchema interface {
	ContactFields(ctx context.Context, userID string) (FieldSet, error)
}

// StaticContactSchema is a ContactSchema shared by every user
type StaticContactSchema struct {
	fields FieldSet
}

// NewStaticContactSchema creates a contact schema with the given fields
func NewStaticContactSchema(fields ...string) *StaticContactSchema {
	return &StaticContactSchema{fields: NewFieldSet(fields...)}
}

// ParseContactFields splits a comma separated list of contact fields
func ParseContactFields(list string) []string {
	fields := []string{}
	for _, field := range strings.Split(list, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

// ContactFields returns a copy of the shared field set
func (s *StaticContactSchema) ContactFields(ctx context.Context, userID string) (FieldSet, error) {
	return NewFieldSet(s.fields.Sorted()...), nil
}

// CatalogFile is the on-disk form of the catalog
type CatalogFile struct {
	Definitions   []*Definition `yaml:"definitions"`
	ContactFields []string      `yaml:"contact_fields"`
}

// LoadCatalogFile reads a YAML catalog file into a registry and a contact schema
func LoadCatalogFile(path string) (*Registry, *StaticContactSchema, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("catalog file not found at %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog parses YAML catalog data into a registry and a contact schema
func ParseCatalog(data []byte) (*Registry, *StaticContactSchema, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	registry, err := NewRegistry(file.Definitions...)
	if err != nil {
		return nil, nil, err
	}

	return registry, NewStaticContactSchema(file.ContactFields...), nil
}

// SeedDefinitions copies every definition of the catalog into the store.
// Definitions that already exist in the store are left untouched.
func SeedDefinitions(ctx context.Context, store DefinitionStore, catalog Catalog) (int, error) {
	defs, err := catalog.ListDefinitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list catalog definitions: %w", err)
	}

	inserted := 0
	for _, def := range defs {
		err := store.InsertDefinition(ctx, def)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, ErrConflict):
			continue
		default:
			return inserted, fmt.Errorf("failed to seed definition '%s': %w", def.Name, err)
		}
	}

	return inserted, nil
}

func nameOf(def *Definition) string {
	if def == nil {
		return ""
	}
	return def.Name
}
