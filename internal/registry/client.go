// Package registry talks to the external unit registry that owns the fleet
// of tracked solar-generation units. This service only reads from it.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kasunwathsala/solar-dashboard-data-api/internal/models"
)

// ErrUnavailable wraps any transport or non-2xx failure from the registry.
// Callers treat it as fatal for the current generation run.
var ErrUnavailable = errors.New("unit registry unavailable")

const (
	defaultTimeout = 10 * time.Second
	unitsPath      = "/units"

	// maxBodyBytes caps the response we are willing to decode.
	maxBodyBytes = 4 << 20
)

// Client fetches units over the registry's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a registry client. timeout <= 0 falls back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ActiveUnits returns the registry's units filtered to status ACTIVE.
// Any transport failure or non-2xx response is reported as ErrUnavailable.
func (c *Client) ActiveUnits(ctx context.Context) ([]models.Unit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+unitsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var units []models.Unit
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&units); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	active := make([]models.Unit, 0, len(units))
	for _, u := range units {
		if u.Status == models.UnitStatusActive {
			active = append(active, u)
		}
	}
	return active, nil
}
