package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ethanbaker/api/pkg/api_types"
)

const integrationsPath = "/api/integrations"

func integrationPath(name string) string {
	return integrationsPath + "/" + url.PathEscape(name)
}

// Health checks that the backend is up
func (c *Client) Health(ctx context.Context) error {
	var out ApiResponse[any]
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return err
	}

	// Check for success
	switch out.Status {
	case api_types.StatusFail:
		return fmt.Errorf("health check failed: %s", out.Message)
	case api_types.StatusError:
		return fmt.Errorf("health check error (%s): %v", out.Message, out.Error)
	}

	return nil
}

// ListIntegrations returns every integration definition in the catalog
func (c *Client) ListIntegrations(ctx context.Context) ([]*Definition, error) {
	var out []*Definition
	if err := c.doJSON(ctx, http.MethodGet, integrationsPath, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// ListUserIntegrations returns every integration the user has connected
func (c *Client) ListUserIntegrations(ctx context.Context) ([]*UserIntegration, error) {
	var out []*UserIntegration
	if err := c.doJSON(ctx, http.MethodGet, "/api/user/integrations", nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// CreateIntegration registers a new integration definition
func (c *Client) CreateIntegration(ctx context.Context, def *Definition) (*Definition, error) {
	var out Definition
	if err := c.doJSON(ctx, http.MethodPost, integrationsPath, def, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetIntegration returns the user's connected instance of an integration
func (c *Client) GetIntegration(ctx context.Context, name string) (*UserIntegration, error) {
	var out UserIntegration
	if err := c.doJSON(ctx, http.MethodGet, integrationPath(name), nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ConnectIntegration submits options and field mappings and connects the integration
func (c *Client) ConnectIntegration(ctx context.Context, in *UserIntegration) (*UserIntegration, error) {
	if in == nil || in.Name == "" {
		return nil, fmt.Errorf("an integration name must be provided")
	}

	var out UserIntegration
	if err := c.doJSON(ctx, http.MethodPost, integrationPath(in.Name), in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DisconnectIntegration removes the user's instance of an integration
func (c *Client) DisconnectIntegration(ctx context.Context, name string) error {
	var out MessageResponse
	if err := c.doJSON(ctx, http.MethodDelete, integrationPath(name), nil, &out); err != nil {
		return err
	}

	if out.Message != Success {
		return fmt.Errorf("unexpected disconnect response: %q", out.Message)
	}

	return nil
}
