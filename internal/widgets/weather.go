package widgets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WeatherFetcher combines the current-conditions and daily-forecast feeds
// into the single payload the dashboard renders.
type WeatherFetcher struct {
	client      *http.Client
	currentURL  string
	forecastURL string
}

// NewWeatherFetcher creates a fetcher for the given feed endpoints.
func NewWeatherFetcher(client *http.Client, currentURL, forecastURL string) *WeatherFetcher {
	return &WeatherFetcher{
		client:      client,
		currentURL:  currentURL,
		forecastURL: forecastURL,
	}
}

// Name implements Fetcher.
func (f *WeatherFetcher) Name() string {
	return "weather"
}

// weatherPayload is the combined shape served to the dashboard.
type weatherPayload struct {
	Current  json.RawMessage `json:"current"`
	Forecast json.RawMessage `json:"forecast"`
}

// Fetch retrieves both feeds concurrently and combines the first current
// condition with the first daily forecast.
func (f *WeatherFetcher) Fetch(ctx context.Context) (json.RawMessage, error) {
	type result struct {
		body []byte
		err  error
	}

	currentCh := make(chan result, 1)
	forecastCh := make(chan result, 1)

	go func() {
		body, err := fetchJSON(ctx, f.client, withTimestamp(f.currentURL))
		currentCh <- result{body, err}
	}()
	go func() {
		body, err := fetchJSON(ctx, f.client, withTimestamp(f.forecastURL))
		forecastCh <- result{body, err}
	}()

	current := <-currentCh
	forecast := <-forecastCh
	if current.err != nil {
		return nil, fmt.Errorf("current conditions: %w", current.err)
	}
	if forecast.err != nil {
		return nil, fmt.Errorf("forecast: %w", forecast.err)
	}

	// Current conditions arrive as a single-element array
	var conditions []json.RawMessage
	if err := json.Unmarshal(current.body, &conditions); err != nil {
		return nil, fmt.Errorf("failed to parse current conditions: %w", err)
	}
	if len(conditions) == 0 {
		return nil, fmt.Errorf("current conditions feed returned no entries")
	}

	var daily struct {
		DailyForecasts []json.RawMessage `json:"DailyForecasts"`
	}
	if err := json.Unmarshal(forecast.body, &daily); err != nil {
		return nil, fmt.Errorf("failed to parse forecast: %w", err)
	}
	if len(daily.DailyForecasts) == 0 {
		return nil, fmt.Errorf("forecast feed returned no daily entries")
	}

	return json.Marshal(weatherPayload{
		Current:  conditions[0],
		Forecast: daily.DailyForecasts[0],
	})
}

// withTimestamp appends a cache-busting timestamp query parameter.
func withTimestamp(url string) string {
	sep := "?"
	for _, c := range url {
		if c == '?' {
			sep = "&"
			break
		}
	}
	return fmt.Sprintf("%s%stimestamp=%d", url, sep, time.Now().UnixMilli())
}

func fetchJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
