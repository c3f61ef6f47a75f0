package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-dashboard/internal/cache"
	"media-dashboard/internal/handlers"
	"media-dashboard/internal/logging"
	"media-dashboard/internal/middleware"
	"media-dashboard/internal/playlist"
	"media-dashboard/internal/probe"
	"media-dashboard/internal/startup"
	"media-dashboard/internal/transcoder"
	"media-dashboard/internal/widgets"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Verify the encoder toolchain; failures are logged but not fatal
	startup.LogTranscoderInit()

	// Transcoding session state
	registry := transcoder.NewRegistry()
	limiter := transcoder.NewLimiter(config.MaxConcurrentTranscoders)

	// Playlist scanner
	scanner := playlist.NewScanner(config.VideoDir, probe.New())

	// Widget caches; fall back to memory-only stores when the cache
	// directory is unusable
	weatherPath := config.WeatherCacheFile
	dollarPath := config.DollarCacheFile
	if !config.WidgetPersistence {
		weatherPath, dollarPath = "", ""
	}
	weatherStore := cache.NewStore(weatherPath, config.WidgetRefreshInterval)
	dollarStore := cache.NewStore(dollarPath, config.WidgetRefreshInterval)
	if err := weatherStore.Load(); err != nil {
		logging.Warn("Failed to load weather cache: %v", err)
	}
	if err := dollarStore.Load(); err != nil {
		logging.Warn("Failed to load dollar cache: %v", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	weather := widgets.New(
		widgets.NewWeatherFetcher(client, config.WeatherCurrentURL, config.WeatherForecastURL),
		weatherStore,
	)
	dollar := widgets.New(
		widgets.NewDollarFetcher(client, config.DollarRatesURL),
		dollarStore,
	)

	scheduler := widgets.NewScheduler(config.WidgetRefreshInterval, time.Minute, weather, dollar)
	scheduler.Start()

	// Initialize handlers
	h := handlers.New(registry, limiter, scanner, weather, dollar, config)

	// Setup router and middleware chain
	router := setupRouter(h)
	wrapped := middleware.Metrics(middleware.DefaultMetricsConfig())(router)
	wrapped = middleware.Logger(middleware.DefaultLoggingConfig())(wrapped)
	handler := middleware.CORS()(wrapped)

	// WriteTimeout stays 0: live transcode streams run for the length of
	// the movie; per-write stalls are handled inside the stream writer.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort)
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, scheduler, registry)

	// Start server
	startup.LogServerStarted(config.Port, config.MetricsPort, config.MetricsEnabled, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health and probe routes
	r.HandleFunc("/api/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")

	// Video routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos/playlist", h.GetPlaylist).Methods("GET")
	api.HandleFunc("/videos/stream/{path:.*}", h.StreamVideo).Methods("GET")

	// Dashboard widget routes
	api.HandleFunc("/weather", h.GetWeather).Methods("GET")
	api.HandleFunc("/dollar-rates", h.GetDollarRates).Methods("GET")

	return r
}

// startMetricsServer exposes Prometheus metrics on a separate port so the
// scrape endpoint never competes with video traffic.
func startMetricsServer(port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()

	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, scheduler *widgets.Scheduler, registry *transcoder.Registry) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop()
	startup.LogShutdownStep("Widget scheduler stopped")

	registry.StopAll()
	startup.LogShutdownStep("Transcoding sessions stopped")

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStep("Metrics server stopped")
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStep("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
