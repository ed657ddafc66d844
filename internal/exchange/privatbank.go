package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultAPIURL is the public PrivatBank archive endpoint; the date query
// parameter is appended per request.
const DefaultAPIURL = "https://api.privatbank.ua/p24api/exchange_rates"

// PrivatBankClient implements RateProvider against the PrivatBank
// exchange-rates archive API.
type PrivatBankClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPrivatBankClient creates a provider for the given base URL. An empty
// baseURL selects the public endpoint; a non-positive timeout defaults to
// ten seconds.
func NewPrivatBankClient(baseURL string, timeout time.Duration) *PrivatBankClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &PrivatBankClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the rate sheet for one date (dd.mm.yyyy).
func (c *PrivatBankClient) Fetch(ctx context.Context, date string) (*RateSheet, error) {
	url := fmt.Sprintf("%s?json&date=%s", c.baseURL, date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rate request for %s: %w", date, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rates for %s: %w", date, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching rates for %s: unexpected status %d", date, resp.StatusCode)
	}

	var sheet RateSheet
	if err := json.NewDecoder(resp.Body).Decode(&sheet); err != nil {
		return nil, fmt.Errorf("decoding rates for %s: %w", date, err)
	}

	return &sheet, nil
}
