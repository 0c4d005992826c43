package integration

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when no matching definition or instance exists
	ErrNotFound = errors.New("item not found")

	// ErrConflict is returned when inserting a definition or instance that already exists
	ErrConflict = errors.New("item already exists")
)

// Field scopes used in FieldError
const (
	ScopeOptions       = "options"
	ScopeFieldMappings = "field_mappings"
)

// Messages used in FieldError
const (
	MsgRequired             = "Field required"
	MsgNotMapped            = "Field not mapped"
	MsgUnknownContactField  = "Unknown contact field"
	MsgUnknownExternalField = "Unknown external field"
	MsgUnknownOption        = "Unknown option"
	MsgMappingNotSupported  = "Field mappings not supported"
	MsgNameMismatch         = "Does not match path"
	MsgMalformedBody        = "Malformed request body"
)

// FieldError is a single validation failure on one field
type FieldError struct {
	Scope   string `json:"scope,omitempty"` // options, field_mappings, or empty for top level fields
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Path returns the form path of the field (e.g. "options.apiKey")
func (e FieldError) Path() string {
	if e.Scope == "" {
		return e.Key
	}
	return e.Scope + "." + e.Key
}

// ValidationErrors is a set of per-field validation failures
type ValidationErrors []FieldError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Path(), e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the failures keyed by form path
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, e := range v {
		fields[e.Path()] = e.Message
	}
	return fields
}

// Keys returns the keys of the failures within a scope, sorted
func (v ValidationErrors) Keys(scope string) []string {
	keys := []string{}
	for _, e := range v {
		if e.Scope == scope {
			keys = append(keys, e.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// ValidationErrorsFromFields rebuilds validation errors from form paths
func ValidationErrorsFromFields(fields map[string]string) ValidationErrors {
	paths := make([]string, 0, len(fields))
	for path := range fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	errs := make(ValidationErrors, 0, len(paths))
	for _, path := range paths {
		fe := FieldError{Key: path, Message: fields[path]}
		if scope, key, ok := strings.Cut(path, "."); ok {
			fe.Scope, fe.Key = scope, key
		}
		errs = append(errs, fe)
	}
	return errs
}

// AsValidationErrors unwraps err into ValidationErrors if it is one
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
