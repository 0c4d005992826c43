package sdk

import (
	"github.com/ethanbaker/api/pkg/api_types"
	"github.com/ethanbaker/integrations/pkg/integration"
)

// Error and message codes returned by the integrations API
const (
	ItemNotFound  = "item_not_found"
	ItemExists    = "item_exists"
	InternalError = "internal_error"
	Success       = "success"
)

// ApiResponse represents the standard envelope used by the health endpoint
type ApiResponse[T any] struct {
	Status  api_types.StatusType `json:"status"`          // Status message
	Code    int                  `json:"code"`            // Status code
	Message string               `json:"message"`         // Human-readable message
	Data    T                    `json:"data,omitempty"`  // Optional data field for successful responses
	Error   any                  `json:"error,omitempty"` // Optional errors field for error responses
}

/** Integrations */

// Definition is the wire form of an integration definition
type Definition = integration.Definition

// UserIntegration is the wire form of a user's integration instance
type UserIntegration = integration.UserIntegration

// ErrorResponse is the body of 404, 409 and 500 responses
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of a successful disconnect
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse is the body of a 422 response, keyed by form path
// (e.g. "options.apiKey" or "field_mappings.email_address")
type ValidationErrorResponse struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationErrorResponse builds a 422 body from validation errors
func NewValidationErrorResponse(errs integration.ValidationErrors) ValidationErrorResponse {
	return ValidationErrorResponse{Errors: errs.Fields()}
}
