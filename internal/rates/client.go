// Package rates fetches USD-relative exchange rates from a public endpoint.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BigTvz/Scope/internal/core"
)

// DefaultURL serves the full USD-based rate table as JSON.
const DefaultURL = "https://api.exchangerate-api.com/v4/latest/USD"

type Client struct {
	http *http.Client
	url  string
}

func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		http: &http.Client{Timeout: 15 * time.Second},
		url:  url,
	}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Fetch retrieves the current rate table. Non-2xx responses, malformed
// bodies and empty tables are all reported as errors; the caller keeps its
// previous rates in every failure case.
func (c *Client) Fetch(ctx context.Context) (core.ExchangeRates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("rates endpoint returned %s", resp.Status)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates body: %w", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rates body missing rates table")
	}

	table := make(core.ExchangeRates, len(body.Rates))
	for code, rate := range body.Rates {
		table[core.NormalizeCurrency(code)] = rate
	}
	return table, nil
}
