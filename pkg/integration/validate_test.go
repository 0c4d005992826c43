package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFieldMapping(t *testing.T) {
	contacts := NewFieldSet("firstName", "email")
	external := NewFieldSet("full_name", "email_address")

	tests := []struct {
		name    string
		mapping FieldMapping
		want    map[string]string
	}{
		{
			name:    "complete mapping drawn from contact fields",
			mapping: FieldMapping{"full_name": "firstName", "email_address": "email"},
			want:    nil,
		},
		{
			name:    "missing external field",
			mapping: FieldMapping{"full_name": "firstName"},
			want:    map[string]string{"field_mappings.email_address": MsgNotMapped},
		},
		{
			name:    "nil mapping reports every external field",
			mapping: nil,
			want: map[string]string{
				"field_mappings.email_address": MsgNotMapped,
				"field_mappings.full_name":     MsgNotMapped,
			},
		},
		{
			name:    "empty target",
			mapping: FieldMapping{"full_name": "", "email_address": "email"},
			want:    map[string]string{"field_mappings.full_name": MsgRequired},
		},
		{
			name:    "target not on contact schema",
			mapping: FieldMapping{"full_name": "lastName", "email_address": "email"},
			want:    map[string]string{"field_mappings.full_name": MsgUnknownContactField},
		},
		{
			name:    "key outside external schema",
			mapping: FieldMapping{"full_name": "firstName", "email_address": "email", "phone": "email"},
			want:    map[string]string{"field_mappings.phone": MsgUnknownExternalField},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateFieldMapping(tt.mapping, contacts, external)
			if tt.want == nil {
				assert.Nil(t, errs)
				return
			}
			assert.Equal(t, tt.want, errs.Fields())
		})
	}
}

func TestValidateFieldMapping_NoExternalSchema(t *testing.T) {
	contacts := NewFieldSet("email")

	t.Run("any key accepted", func(t *testing.T) {
		errs := ValidateFieldMapping(FieldMapping{"anything": "email"}, contacts, NewFieldSet())
		assert.Nil(t, errs)
	})

	t.Run("values still checked", func(t *testing.T) {
		errs := ValidateFieldMapping(FieldMapping{"anything": "phone"}, contacts, nil)
		assert.Equal(t, []string{"anything"}, errs.Keys(ScopeFieldMappings))
	})
}

func TestValidateFieldMapping_SortedOutput(t *testing.T) {
	errs := ValidateFieldMapping(nil, NewFieldSet(), NewFieldSet("c", "a", "b"))
	require.Len(t, errs, 3)
	assert.Equal(t, "a", errs[0].Key)
	assert.Equal(t, "b", errs[1].Key)
	assert.Equal(t, "c", errs[2].Key)
}

func TestValidateOptions(t *testing.T) {
	def := &Definition{Name: "CRM", Options: Options{"apiKey": "", "region": "us"}}

	t.Run("all present", func(t *testing.T) {
		assert.Nil(t, ValidateOptions(def, Options{"apiKey": "abc", "region": "eu"}))
	})

	t.Run("missing keys named exactly", func(t *testing.T) {
		errs := ValidateOptions(def, Options{"region": "eu"})
		assert.Equal(t, []string{"apiKey"}, errs.Keys(ScopeOptions))
		assert.Equal(t, MsgRequired, errs.Fields()["options.apiKey"])
	})

	t.Run("empty counts as missing", func(t *testing.T) {
		errs := ValidateOptions(def, Options{"apiKey": "", "region": ""})
		assert.Equal(t, []string{"apiKey", "region"}, errs.Keys(ScopeOptions))
	})

	t.Run("whitespace is a value", func(t *testing.T) {
		assert.Nil(t, ValidateOptions(def, Options{"apiKey": "  ", "region": "eu"}))
	})

	t.Run("unknown keys rejected", func(t *testing.T) {
		errs := ValidateOptions(def, Options{"apiKey": "abc", "region": "eu", "extra": "x"})
		assert.Equal(t, map[string]string{"options.extra": MsgUnknownOption}, errs.Fields())
	})

	t.Run("definition without options", func(t *testing.T) {
		assert.Nil(t, ValidateOptions(&Definition{Name: "Empty"}, nil))
	})
}

func TestValidateDefinition(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.Nil(t, ValidateDefinition(&Definition{Name: "CRM", Options: Options{"apiKey": ""}}))
	})

	t.Run("missing name", func(t *testing.T) {
		errs := ValidateDefinition(&Definition{Options: Options{"apiKey": ""}})
		assert.Equal(t, MsgRequired, errs.Fields()["name"])
	})

	t.Run("empty option key", func(t *testing.T) {
		errs := ValidateDefinition(&Definition{Name: "CRM", Options: Options{"": "x"}})
		require.Len(t, errs, 1)
		assert.Equal(t, ScopeOptions, errs[0].Key)
	})

	t.Run("empty external field", func(t *testing.T) {
		errs := ValidateDefinition(&Definition{Name: "CRM", ExternalFields: []string{"ok", ""}})
		require.Len(t, errs, 1)
		assert.Equal(t, "external_fields", errs[0].Key)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NotNil(t, ValidateDefinition(nil))
	})
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Scope: ScopeOptions, Key: "apiKey", Message: MsgRequired},
		{Scope: ScopeFieldMappings, Key: "email_address", Message: MsgNotMapped},
		{Key: "name", Message: MsgNameMismatch},
	}

	t.Run("error string names every field", func(t *testing.T) {
		msg := errs.Error()
		assert.Contains(t, msg, "options.apiKey")
		assert.Contains(t, msg, "field_mappings.email_address")
		assert.Contains(t, msg, "name")
	})

	t.Run("fields round trip", func(t *testing.T) {
		rebuilt := ValidationErrorsFromFields(errs.Fields())
		assert.ElementsMatch(t, errs, rebuilt)
	})

	t.Run("as validation errors through wrapping", func(t *testing.T) {
		wrapped := error(errs)
		got, ok := AsValidationErrors(wrapped)
		require.True(t, ok)
		assert.Len(t, got, 3)

		_, ok = AsValidationErrors(ErrNotFound)
		assert.False(t, ok)
	})
}
