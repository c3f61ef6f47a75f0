package widgets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"media-dashboard/internal/cache"
)

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	return cache.NewStore(filepath.Join(t.TempDir(), "widget.json"), 30*time.Minute)
}

func TestDollarFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"casa":"oficial","venta":1050},{"casa":"blue","venta":1200}]`))
	}))
	defer srv.Close()

	f := NewDollarFetcher(srv.Client(), srv.URL)
	if f.Name() != "dollar" {
		t.Errorf("Expected name=dollar, got %s", f.Name())
	}

	data, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	var rates []map[string]interface{}
	if err := json.Unmarshal(data, &rates); err != nil {
		t.Fatalf("Payload is not a JSON array: %v", err)
	}
	if len(rates) != 2 {
		t.Errorf("Expected 2 rates, got %d", len(rates))
	}
}

func TestDollarFetcherNonArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	f := NewDollarFetcher(srv.Client(), srv.URL)
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("Expected error for non-array payload")
	}
}

func TestDollarFetcherUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewDollarFetcher(srv.Client(), srv.URL)
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("Expected error for upstream 502")
	}
}

func TestWeatherFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("timestamp") == "" {
			t.Error("Expected cache-busting timestamp parameter")
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/current"):
			w.Write([]byte(`[{"Temperature":{"Metric":{"Value":21.5}}}]`))
		case strings.HasPrefix(r.URL.Path, "/forecast"):
			w.Write([]byte(`{"DailyForecasts":[{"Temperature":{"Maximum":{"Value":28}}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f := NewWeatherFetcher(srv.Client(), srv.URL+"/current?apikey=x", srv.URL+"/forecast?apikey=y")
	if f.Name() != "weather" {
		t.Errorf("Expected name=weather, got %s", f.Name())
	}

	data, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	var payload struct {
		Current  json.RawMessage `json:"current"`
		Forecast json.RawMessage `json:"forecast"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("Failed to parse combined payload: %v", err)
	}
	if len(payload.Current) == 0 || len(payload.Forecast) == 0 {
		t.Error("Expected both current and forecast sections")
	}
}

func TestWeatherFetcherEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/current") {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`{"DailyForecasts":[{}]}`))
	}))
	defer srv.Close()

	f := NewWeatherFetcher(srv.Client(), srv.URL+"/current", srv.URL+"/forecast")
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("Expected error for empty current-conditions feed")
	}
}

// failingFetcher always errors, for refresh-failure paths.
type failingFetcher struct{}

func (failingFetcher) Name() string { return "failing" }
func (failingFetcher) Fetch(context.Context) (json.RawMessage, error) {
	return nil, errors.New("upstream down")
}

// stubFetcher returns a fixed payload and counts calls.
type stubFetcher struct {
	calls int
}

func (s *stubFetcher) Name() string { return "stub" }
func (s *stubFetcher) Fetch(context.Context) (json.RawMessage, error) {
	s.calls++
	return json.RawMessage(`{"ok":true}`), nil
}

func TestWidgetRefresh(t *testing.T) {
	store := newTestStore(t)
	w := New(&stubFetcher{}, store)

	if _, ok := w.Get(); ok {
		t.Fatal("Expected cold cache before refresh")
	}

	w.Refresh(context.Background())

	data, ok := w.Get()
	if !ok {
		t.Fatal("Expected payload after refresh")
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("Unexpected payload: %s", data)
	}
}

func TestWidgetRefreshFailureKeepsCache(t *testing.T) {
	store := newTestStore(t)

	good := New(&stubFetcher{}, store)
	good.Refresh(context.Background())

	bad := New(failingFetcher{}, store)
	bad.Refresh(context.Background())

	if _, ok := bad.Get(); !ok {
		t.Error("Refresh failure must not clear the previous payload")
	}
}

func TestSchedulerColdStartRefresh(t *testing.T) {
	store := newTestStore(t)
	fetcher := &stubFetcher{}
	w := New(fetcher, store)

	s := NewScheduler(time.Hour, 5*time.Second, w)
	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := w.Get(); ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Expected cold cache to be refreshed on scheduler start")
}

func TestSchedulerWarmStartSkipsRefresh(t *testing.T) {
	store := newTestStore(t)
	fetcher := &stubFetcher{}
	w := New(fetcher, store)

	w.Refresh(context.Background())
	if fetcher.calls != 1 {
		t.Fatalf("Expected 1 call after manual refresh, got %d", fetcher.calls)
	}

	s := NewScheduler(time.Hour, 5*time.Second, w)
	s.Start()
	defer s.Stop()

	time.Sleep(100 * time.Millisecond)
	if fetcher.calls != 1 {
		t.Errorf("Warm cache should not trigger an immediate refresh, got %d calls", fetcher.calls)
	}
}
