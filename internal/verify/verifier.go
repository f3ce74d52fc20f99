// Package verify checks companies against the tax administration's registry
// of active VAT payers. The account model only cares about a yes/no answer;
// anything that goes wrong on the wire counts as no.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultBaseURL is the production registry endpoint.
const DefaultBaseURL = "https://wl-api.mf.gov.pl"

const requestTimeout = 10 * time.Second

// statusActive is the registry's wording for an active VAT payer.
const statusActive = "Czynny"

// Client queries the company registry over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL. An empty base URL falls
// back to the production registry.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// searchResponse mirrors the registry's response envelope. Only the VAT
// status is of interest.
type searchResponse struct {
	Result struct {
		Subject *struct {
			StatusVat string `json:"statusVat"`
		} `json:"subject"`
	} `json:"result"`
}

// Verify reports whether the company behind the NIP is an active VAT payer
// as of the given date. A transport error, non-200 status, or a response
// without a subject all mean the company could not be verified.
func (c *Client) Verify(ctx context.Context, nip string, date time.Time) (bool, error) {
	url := fmt.Sprintf("%s/api/search/nip/%s?date=%s", c.baseURL, nip, date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to build registry request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("failed to decode registry response: %w", err)
	}

	if payload.Result.Subject == nil {
		return false, nil
	}

	return payload.Result.Subject.StatusVat == statusActive, nil
}
