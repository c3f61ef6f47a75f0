package widgets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DollarFetcher retrieves the currency-rate array the dashboard renders.
type DollarFetcher struct {
	client *http.Client
	url    string
}

// NewDollarFetcher creates a fetcher for the given rates endpoint.
func NewDollarFetcher(client *http.Client, url string) *DollarFetcher {
	return &DollarFetcher{client: client, url: url}
}

// Name implements Fetcher.
func (f *DollarFetcher) Name() string {
	return "dollar"
}

// Fetch retrieves the rate array and passes it through unchanged.
func (f *DollarFetcher) Fetch(ctx context.Context) (json.RawMessage, error) {
	body, err := fetchJSON(ctx, f.client, f.url)
	if err != nil {
		return nil, err
	}

	var rates []json.RawMessage
	if err := json.Unmarshal(body, &rates); err != nil {
		return nil, fmt.Errorf("failed to parse rates: %w", err)
	}

	return body, nil
}
