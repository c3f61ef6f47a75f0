package widgets

import (
	"context"
	"encoding/json"
	"time"

	"media-dashboard/internal/cache"
	"media-dashboard/internal/logging"
	"media-dashboard/internal/metrics"

	"github.com/robfig/cron/v3"
)

// Fetcher retrieves one widget payload from its upstream service.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (json.RawMessage, error)
}

// Widget pairs a fetcher with its persistent cache.
type Widget struct {
	fetcher Fetcher
	store   *cache.Store
}

// New creates a widget backed by the given fetcher and cache store.
func New(fetcher Fetcher, store *cache.Store) *Widget {
	return &Widget{fetcher: fetcher, store: store}
}

// Name returns the widget's name.
func (w *Widget) Name() string {
	return w.fetcher.Name()
}

// Get returns the cached payload, or false if none is fresh.
func (w *Widget) Get() (json.RawMessage, bool) {
	return w.store.Get()
}

// Refresh fetches a fresh payload and stores it. Failures are logged and
// counted but never fatal; the previous payload stays served until it expires.
func (w *Widget) Refresh(ctx context.Context) {
	data, err := w.fetcher.Fetch(ctx)
	if err != nil {
		logging.Error("Error updating %s cache: %v", w.Name(), err)
		metrics.WidgetRefreshTotal.WithLabelValues(w.Name(), "error").Inc()
		return
	}

	if err := w.store.Set(data); err != nil {
		logging.Error("Error persisting %s cache: %v", w.Name(), err)
		metrics.WidgetRefreshTotal.WithLabelValues(w.Name(), "error").Inc()
		return
	}

	metrics.WidgetRefreshTotal.WithLabelValues(w.Name(), "ok").Inc()
	logging.Debug("Refreshed %s widget cache", w.Name())
}

// Scheduler refreshes widget caches on a fixed cadence.
type Scheduler struct {
	cron    *cron.Cron
	widgets []*Widget
	timeout time.Duration
}

// NewScheduler creates a scheduler refreshing the given widgets every
// interval. Each refresh is bounded by timeout.
func NewScheduler(interval, timeout time.Duration, widgets ...*Widget) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(),
		widgets: widgets,
		timeout: timeout,
	}

	for _, w := range widgets {
		w := w
		s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			w.Refresh(ctx)
		}))
	}

	return s
}

// Start begins the refresh schedule. Widgets whose cache is cold are
// refreshed immediately rather than waiting a full interval.
func (s *Scheduler) Start() {
	for _, w := range s.widgets {
		if _, ok := w.Get(); ok {
			continue
		}
		go func(w *Widget) {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()
			w.Refresh(ctx)
		}(w)
	}

	s.cron.Start()
}

// Stop halts the refresh schedule and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
