package startup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"media-dashboard/internal/logging"
	"media-dashboard/internal/transcoder"

	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Default upstream endpoints for the dashboard widgets. Overridable via env
// so deployments can point at their own region or mirror.
const (
	defaultWeatherCurrentURL  = "http://dataservice.accuweather.com/currentconditions/v1/7492?language=es-ar&details=true"
	defaultWeatherForecastURL = "http://dataservice.accuweather.com/forecasts/v1/daily/1day/7492?language=es-ar&details=true&metric=true"
	defaultDollarRatesURL     = "https://dolarapi.com/v1/dolares"
)

// Config holds all application configuration
type Config struct {
	VideoDir    string
	CacheDir    string
	Port        string
	MetricsPort string

	MetricsEnabled           bool
	MaxConcurrentTranscoders int
	WidgetRefreshInterval    time.Duration

	WeatherCurrentURL  string
	WeatherForecastURL string
	DollarRatesURL     string

	// Derived paths
	WeatherCacheFile string
	DollarCacheFile  string

	// WidgetPersistence is false when the cache directory is unusable;
	// widgets then run in-memory only.
	WidgetPersistence bool
}

// LoadConfig loads and validates configuration from the environment. A .env
// file in the working directory is honored when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logging.Debug("Loaded environment from .env")
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	videoDir := getEnv("VIDEO_PATH", "/videos")
	cacheDir := getEnv("CACHE_DIR", "/cache")
	port := getEnv("PORT", "3000")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	maxTranscoders := getEnvInt("MAX_CONCURRENT_TRANSCODERS", 2)
	refreshStr := getEnv("WIDGET_REFRESH_INTERVAL", "30m")

	logging.Info("  VIDEO_PATH:                 %s", videoDir)
	logging.Info("  CACHE_DIR:                  %s", cacheDir)
	logging.Info("  PORT:                       %s", port)
	logging.Info("  METRICS_PORT:               %s", metricsPort)
	logging.Info("  METRICS_ENABLED:            %v", metricsEnabled)
	logging.Info("  MAX_CONCURRENT_TRANSCODERS: %d", maxTranscoders)
	logging.Info("  WIDGET_REFRESH_INTERVAL:    %s", refreshStr)
	logging.Info("  LOG_LEVEL:                  %s", logging.GetLevel())

	refreshInterval, err := time.ParseDuration(refreshStr)
	if err != nil {
		logging.Warn("  Invalid WIDGET_REFRESH_INTERVAL, using default: 30m")
		refreshInterval = 30 * time.Minute
	}

	if maxTranscoders < 1 {
		logging.Warn("  MAX_CONCURRENT_TRANSCODERS must be >= 1, using 1")
		maxTranscoders = 1
	}

	videoDir, err = filepath.Abs(videoDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve video directory path: %w", err)
	}
	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}

	config := &Config{
		VideoDir:                 videoDir,
		CacheDir:                 cacheDir,
		Port:                     port,
		MetricsPort:              metricsPort,
		MetricsEnabled:           metricsEnabled,
		MaxConcurrentTranscoders: maxTranscoders,
		WidgetRefreshInterval:    refreshInterval,
		WeatherCurrentURL:        getEnv("WEATHER_CURRENT_URL", defaultWeatherCurrentURL),
		WeatherForecastURL:       getEnv("WEATHER_FORECAST_URL", defaultWeatherForecastURL),
		DollarRatesURL:           getEnv("DOLLAR_RATES_URL", defaultDollarRatesURL),
		WeatherCacheFile:         filepath.Join(cacheDir, "weatherCache.json"),
		DollarCacheFile:          filepath.Join(cacheDir, "dollarCache.json"),
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Serving videos from: %s", videoDir)

	if info, err := os.Stat(videoDir); err != nil || !info.IsDir() {
		logging.Warn("  Video directory is not accessible: %v", err)
		logging.Warn("  Playlist scans will fail until it exists")
	}

	config.WidgetPersistence = setupCacheDir(cacheDir)

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Widget persistence: %s", enabledString(config.WidgetPersistence))
	logging.Info("    Metrics:            %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// setupCacheDir creates the cache directory and verifies write access.
func setupCacheDir(path string) bool {
	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("  Failed to create cache directory: %v", err)
		logging.Warn("  Widget caches will not survive restarts")
		return false
	}

	testFile := filepath.Join(path, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		logging.Warn("  Cache directory is not writable: %v", err)
		logging.Warn("  Widget caches will not survive restarts")
		return false
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("  failed to remove write test file %s: %v", testFile, err)
	}

	logging.Info("  [OK] Cache directory is writable")
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogTranscoderInit verifies the encoder toolchain at startup. A capability
// failure is logged with a remediation hint but is not fatal: the server
// keeps listening and re-checks per streaming request.
func LogTranscoderInit() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := transcoder.CheckCapabilities(ctx); err != nil {
		logging.Error("  FFmpeg check failed: %v", err)
		logging.Error("  %s", transcoder.InstallHint)
		return
	}
	logging.Info("  [OK] FFmpeg is properly installed with required codecs")
}

// LogServerStarted logs successful server start.
func LogServerStarted(port, metricsPort string, metricsEnabled bool, startupDuration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time: %v", startupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://localhost:%s", port)
	if metricsEnabled {
		logging.Info("    Metrics:       http://localhost:%s/metrics", metricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a completed shutdown step
func LogShutdownStep(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	logging.Info("------------------------------------------------------------")
	logging.Info("MEDIA DASHBOARD")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))
	logging.Info("")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
