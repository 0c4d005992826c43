package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethanbaker/integrations/pkg/integration"
)

// Client wraps calls to the integrations backend
type Client struct {
	baseURL    string
	apiKey     string
	userID     string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL (e.g. http://localhost:8080)
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithUserID returns a copy of the client that acts on behalf of userID
func (c *Client) WithUserID(userID string) *Client {
	clone := *c
	clone.userID = userID
	return &clone
}

// WithHTTPClient returns a copy of the client using the given http client
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	clone := *c
	clone.httpClient = httpClient
	return &clone
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return decodeError(method, path, resp.StatusCode, b)
	}

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}

// decodeError maps an error response onto the integration error taxonomy
func decodeError(method, path string, status int, body []byte) error {
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, integration.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, integration.ErrConflict)
	case http.StatusUnprocessableEntity:
		var res ValidationErrorResponse
		if err := json.Unmarshal(body, &res); err == nil && len(res.Errors) > 0 {
			return integration.ValidationErrorsFromFields(res.Errors)
		}
	}

	return fmt.Errorf("[BACKEND]: backend '%s %s' failed: %d: %s", method, path, status, string(body))
}
