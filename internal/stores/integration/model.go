package integration

import (
	"time"

	"github.com/ethanbaker/integrations/pkg/integration"
)

// DefinitionModel represents the database model for integration definitions
type DefinitionModel struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	Name                 string              `json:"name" gorm:"column:name;unique;not null;size:255"`
	Options              integration.Options `json:"options" gorm:"column:options;type:json;serializer:json"`
	SupportsFieldMapping bool                `json:"supports_field_mapping" gorm:"column:supports_field_mapping;not null"`
	ExternalFields       []string            `json:"external_fields" gorm:"column:external_fields;type:json;serializer:json"`
}

// TableName sets the table name for GORM
func (DefinitionModel) TableName() string {
	return "integration_definitions"
}

// toDefinition converts the model to a domain definition
func (m *DefinitionModel) toDefinition() *integration.Definition {
	return &integration.Definition{
		Name:                 m.Name,
		Options:              m.Options,
		SupportsFieldMapping: m.SupportsFieldMapping,
		ExternalFields:       m.ExternalFields,
	}
}

// UserIntegrationModel represents the database model for a user's connected integration.
// Rows are hard deleted on disconnect.
type UserIntegrationModel struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`

	UserID        string                   `json:"user_id" gorm:"column:user_id;not null;size:255;uniqueIndex:idx_user_integration"`
	Name          string                   `json:"name" gorm:"column:name;not null;size:255;uniqueIndex:idx_user_integration"`
	Connected     bool                     `json:"connected" gorm:"column:connected;not null"`
	Options       integration.Options      `json:"options" gorm:"column:options;type:json;serializer:json"`
	FieldMappings integration.FieldMapping `json:"field_mappings" gorm:"column:field_mappings;type:json;serializer:json"`
}

// TableName sets the table name for GORM
func (UserIntegrationModel) TableName() string {
	return "user_integrations"
}

// toUserIntegration converts the model to a domain instance
func (m *UserIntegrationModel) toUserIntegration() *integration.UserIntegration {
	return &integration.UserIntegration{
		UserID:        m.UserID,
		Name:          m.Name,
		Connected:     m.Connected,
		Options:       m.Options,
		FieldMappings: m.FieldMappings,
	}
}
