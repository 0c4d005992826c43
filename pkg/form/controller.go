// Package form holds the client side state of a single integration form: the
// values a user is editing, the last known server state and the per-field
// errors of the last submit.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethanbaker/integrations/pkg/integration"
)

var (
	// ErrLocked is returned when editing a connected integration
	ErrLocked = errors.New("integration is connected, disconnect before editing")

	// ErrSubmitInFlight is returned when submitting while a submit is running
	ErrSubmitInFlight = errors.New("a submit is already in flight")

	// ErrUnknownField is returned when editing an option or mapping the definition does not declare
	ErrUnknownField = errors.New("unknown field")
)

// Backend is the subset of the integrations API the form needs
type Backend interface {
	GetIntegration(ctx context.Context, name string) (*integration.UserIntegration, error)
	ConnectIntegration(ctx context.Context, in *integration.UserIntegration) (*integration.UserIntegration, error)
	DisconnectIntegration(ctx context.Context, name string) error
}

// Controller owns the state of one integration form.
// Connecting replaces the state with the server response; disconnecting resets
// it to the definition's defaults.
type Controller struct {
	mutex      sync.Mutex
	backend    Backend
	definition *integration.Definition
	current    *integration.UserIntegration
	errors     map[string]string
	submitting bool
}

// Load creates a controller seeded from the user's connected instance, or from
// the bare definition when the user has not connected it
func Load(ctx context.Context, backend Backend, def *integration.Definition) (*Controller, error) {
	if backend == nil || def == nil {
		return nil, fmt.Errorf("a backend and a definition must be provided")
	}

	existing, err := backend.GetIntegration(ctx, def.Name)
	if err != nil && !errors.Is(err, integration.ErrNotFound) {
		return nil, fmt.Errorf("failed to load integration '%s': %w", def.Name, err)
	}

	return New(backend, def, existing)
}

// New creates a controller from an already fetched instance. A nil instance
// seeds the form from the bare definition.
func New(backend Backend, def *integration.Definition, existing *integration.UserIntegration) (*Controller, error) {
	if backend == nil || def == nil {
		return nil, fmt.Errorf("a backend and a definition must be provided")
	}
	if existing != nil && existing.Name != def.Name {
		return nil, fmt.Errorf("instance '%s' does not belong to integration '%s'", existing.Name, def.Name)
	}

	c := &Controller{
		backend:    backend,
		definition: def.Clone(),
		errors:     map[string]string{},
	}

	if existing != nil {
		c.current = existing.Clone()
		c.current.Connected = true
	} else {
		c.current = integration.NewUserIntegration(c.definition)
	}

	return c, nil
}

/** ---- EDITING ---- */

// SetOption sets the value of a declared option
func (c *Controller) SetOption(key, value string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.current.Connected {
		return ErrLocked
	}
	if _, ok := c.definition.Options[key]; !ok {
		return fmt.Errorf("option '%s': %w", key, ErrUnknownField)
	}

	c.current.Options[key] = value
	delete(c.errors, integration.ScopeOptions+"."+key)
	return nil
}

// SetMapping maps an external field onto a contact field
func (c *Controller) SetMapping(external, contact string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.current.Connected {
		return ErrLocked
	}
	if !c.definition.SupportsFieldMapping {
		return fmt.Errorf("integration '%s' does not support field mappings", c.definition.Name)
	}
	if external == "" {
		return fmt.Errorf("external field '': %w", ErrUnknownField)
	}
	if fields := c.definition.ExternalFieldSet(); len(fields) > 0 && !fields.Has(external) {
		return fmt.Errorf("external field '%s': %w", external, ErrUnknownField)
	}

	if c.current.FieldMappings == nil {
		c.current.FieldMappings = integration.FieldMapping{}
	}
	c.current.FieldMappings[external] = contact
	delete(c.errors, integration.ScopeFieldMappings+"."+external)
	return nil
}

/** ---- SUBMIT ---- */

// Submit disconnects a connected integration, or connects a disconnected one
// with the form's current values. A rejected connect keeps every entered value
// and exposes the failures through Errors.
func (c *Controller) Submit(ctx context.Context) error {
	c.mutex.Lock()
	if c.submitting {
		c.mutex.Unlock()
		return ErrSubmitInFlight
	}
	c.submitting = true
	snapshot := c.current.Clone()
	c.mutex.Unlock()

	defer func() {
		c.mutex.Lock()
		c.submitting = false
		c.mutex.Unlock()
	}()

	if snapshot.Connected {
		return c.disconnect(ctx)
	}
	return c.connect(ctx, snapshot)
}

// disconnect resets the form to the definition's defaults once the server
// no longer holds the instance. On failure the form stays connected.
func (c *Controller) disconnect(ctx context.Context) error {
	err := c.backend.DisconnectIntegration(ctx, c.definition.Name)
	if err != nil && !errors.Is(err, integration.ErrNotFound) {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.current = integration.NewUserIntegration(c.definition)
	c.errors = map[string]string{}
	return nil
}

func (c *Controller) connect(ctx context.Context, snapshot *integration.UserIntegration) error {
	if errs := c.checkRequired(snapshot); len(errs) > 0 {
		c.setErrors(errs)
		return errs
	}

	req := &integration.UserIntegration{
		Name:    c.definition.Name,
		Options: snapshot.Options.Clone(),
	}
	if c.definition.SupportsFieldMapping {
		req.FieldMappings = snapshot.FieldMappings.Clone()
	}

	connected, err := c.backend.ConnectIntegration(ctx, req)
	if err != nil {
		if verrs, ok := integration.AsValidationErrors(err); ok {
			c.setErrors(verrs)
		}
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.current = connected.Clone()
	c.current.Connected = true
	c.errors = map[string]string{}
	return nil
}

// checkRequired runs the checks that need no server round trip: declared
// options and known external fields must be filled in
func (c *Controller) checkRequired(snapshot *integration.UserIntegration) integration.ValidationErrors {
	errs := integration.ValidateOptions(c.definition, snapshot.Options)

	if c.definition.SupportsFieldMapping {
		for _, field := range c.definition.ExternalFieldSet().Sorted() {
			if snapshot.FieldMappings[field] == "" {
				errs = append(errs, integration.FieldError{Scope: integration.ScopeFieldMappings, Key: field, Message: integration.MsgRequired})
			}
		}
	}

	return errs
}

func (c *Controller) setErrors(errs integration.ValidationErrors) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.errors = errs.Fields()
}

/** ---- STATE ---- */

// Definition returns the definition the form edits
func (c *Controller) Definition() *integration.Definition {
	return c.definition.Clone()
}

// Current returns a copy of the current instance
func (c *Controller) Current() *integration.UserIntegration {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.current.Clone()
}

// Values returns a copy of the option values
func (c *Controller) Values() integration.Options {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.current.Options.Clone()
}

// Mappings returns a copy of the field mappings
func (c *Controller) Mappings() integration.FieldMapping {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.current.FieldMappings.Clone()
}

// Errors returns the field errors of the last submit keyed by form path
func (c *Controller) Errors() map[string]string {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	errs := make(map[string]string, len(c.errors))
	for path, msg := range c.errors {
		errs[path] = msg
	}
	return errs
}

// Connected reports whether the integration is connected
func (c *Controller) Connected() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.current.Connected
}

// State returns the connection state of the form
func (c *Controller) State() integration.State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return integration.StateOf(c.current)
}

// Submitting reports whether a submit is in flight
func (c *Controller) Submitting() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.submitting
}
