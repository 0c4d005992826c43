package integration

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateOptions checks option values against a definition.
// Every declared option must be present and non-empty; undeclared keys are rejected.
func ValidateOptions(def *Definition, values Options) ValidationErrors {
	var errs ValidationErrors

	// Required keys, in a stable order
	keys := make([]string, 0, len(def.Options))
	for key := range def.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if values[key] == "" {
			errs = append(errs, FieldError{Scope: ScopeOptions, Key: key, Message: MsgRequired})
		}
	}

	// Unknown keys
	unknown := []string{}
	for key := range values {
		if _, ok := def.Options[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)

	for _, key := range unknown {
		errs = append(errs, FieldError{Scope: ScopeOptions, Key: key, Message: MsgUnknownOption})
	}

	return errs
}

// ValidateFieldMapping checks a mapping of external field names to contact field names.
// Every external field must be mapped to a non-empty contact field that exists in contactFields.
// When externalFields is empty no external schema is known and any key is accepted.
func ValidateFieldMapping(mapping FieldMapping, contactFields, externalFields FieldSet) ValidationErrors {
	failures := map[string]string{}

	// Completeness
	for field := range externalFields {
		if _, ok := mapping[field]; !ok {
			failures[field] = MsgNotMapped
		}
	}

	// Referential validity
	for external, contact := range mapping {
		switch {
		case len(externalFields) > 0 && !externalFields.Has(external):
			failures[external] = MsgUnknownExternalField
		case contact == "":
			failures[external] = MsgRequired
		case !contactFields.Has(contact):
			failures[external] = MsgUnknownContactField
		}
	}

	if len(failures) == 0 {
		return nil
	}

	keys := make([]string, 0, len(failures))
	for key := range failures {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	errs := make(ValidationErrors, 0, len(keys))
	for _, key := range keys {
		errs = append(errs, FieldError{Scope: ScopeFieldMappings, Key: key, Message: failures[key]})
	}
	return errs
}

// ValidateDefinition checks a definition's structure before it is registered
func ValidateDefinition(def *Definition) ValidationErrors {
	if def == nil {
		return ValidationErrors{{Key: "name", Message: MsgRequired}}
	}

	err := validate.Struct(def)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Key: "definition", Message: err.Error()}}
	}

	var errs ValidationErrors
	for _, fe := range verrs {
		errs = append(errs, FieldError{Key: definitionField(fe.StructField()), Message: describeTag(fe)})
	}
	return errs
}

// definitionField converts a struct field name into its json name
func definitionField(field string) string {
	switch {
	case field == "Name":
		return "name"
	case strings.HasPrefix(field, "Options"):
		return ScopeOptions
	case strings.HasPrefix(field, "ExternalFields"):
		return "external_fields"
	default:
		return strings.ToLower(field)
	}
}

// describeTag returns a user facing message for a failed validator tag
func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("Failed %s check", fe.Tag())
	}
}
