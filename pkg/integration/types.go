package integration

import (
	"maps"
	"slices"
)

/** Loaded types for the integration module */

// Options maps option keys to string values
type Options map[string]string

// FieldMapping maps an external field name to an internal contact field name
type FieldMapping map[string]string

// Clone returns a copy of the options (nil stays nil)
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	return maps.Clone(o)
}

// Clone returns a copy of the mapping (nil stays nil)
func (m FieldMapping) Clone() FieldMapping {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// FieldSet is a set of field names
type FieldSet map[string]struct{}

// NewFieldSet creates a field set from the given names
func NewFieldSet(names ...string) FieldSet {
	set := make(FieldSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether the set contains name
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in the set in ascending order
func (s FieldSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Definition describes an integration and the configuration it requires
type Definition struct {
	// Name is the unique identifier of the integration
	Name string `json:"name" yaml:"name" validate:"required,max=255"`

	// Options maps option keys to their default/placeholder values
	Options Options `json:"options" yaml:"options" validate:"dive,keys,required,endkeys"`

	// SupportsFieldMapping requires a field mapping at connect time
	SupportsFieldMapping bool `json:"supports_field_mapping" yaml:"supports_field_mapping"`

	// ExternalFields is the last known external schema of the integration
	ExternalFields []string `json:"external_fields,omitempty" yaml:"external_fields" validate:"dive,required"`
}

// ExternalFieldSet returns the definition's external fields as a set
func (d *Definition) ExternalFieldSet() FieldSet {
	return NewFieldSet(d.ExternalFields...)
}

// Clone returns a deep copy of the definition
func (d *Definition) Clone() *Definition {
	return &Definition{
		Name:                 d.Name,
		Options:              d.Options.Clone(),
		SupportsFieldMapping: d.SupportsFieldMapping,
		ExternalFields:       slices.Clone(d.ExternalFields),
	}
}

// UserIntegration is a single user's instance of a definition
type UserIntegration struct {
	UserID        string       `json:"-"`
	Name          string       `json:"name"`
	Connected     bool         `json:"connected"`
	Options       Options      `json:"options"`
	FieldMappings FieldMapping `json:"field_mappings,omitzero"`
}

// Clone returns a deep copy of the instance
func (u *UserIntegration) Clone() *UserIntegration {
	return &UserIntegration{
		UserID:        u.UserID,
		Name:          u.Name,
		Connected:     u.Connected,
		Options:       u.Options.Clone(),
		FieldMappings: u.FieldMappings.Clone(),
	}
}

// NewUserIntegration returns a disconnected instance seeded from the definition's defaults
func NewUserIntegration(def *Definition) *UserIntegration {
	u := &UserIntegration{
		Name:    def.Name,
		Options: def.Options.Clone(),
	}
	if u.Options == nil {
		u.Options = Options{}
	}

	// Mapping-capable definitions start with an empty slot per external field
	if def.SupportsFieldMapping {
		u.FieldMappings = FieldMapping{}
		for _, field := range def.ExternalFields {
			u.FieldMappings[field] = ""
		}
	}

	return u
}

// State is the connection state of an instance
type State string

const (
	// Disconnected means no record exists for the (user, name) pair
	Disconnected State = "disconnected"

	// Connected means a validated record exists
	Connected State = "connected"
)

// StateOf returns the state of an instance, treating nil as disconnected
func StateOf(u *UserIntegration) State {
	if u == nil || !u.Connected {
		return Disconnected
	}
	return Connected
}
