package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_dashboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_dashboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_dashboard_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Transcoder metrics
var (
	ActiveTranscoders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_dashboard_active_transcoders",
			Help: "Number of live ffmpeg transcoding sessions",
		},
	)

	TranscodeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_dashboard_transcode_queue_depth",
			Help: "Number of requests waiting for an encoder slot",
		},
	)

	TranscodeSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_dashboard_transcode_sessions_total",
			Help: "Total number of transcoding sessions by outcome",
		},
		[]string{"outcome"}, // "completed", "failed", "canceled"
	)

	StreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_dashboard_stream_bytes_total",
			Help: "Total bytes streamed to clients",
		},
		[]string{"mode"}, // "direct", "transcode"
	)
)

// Playlist metrics
var (
	PlaylistScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_dashboard_playlist_scans_total",
			Help: "Total number of playlist directory scans",
		},
	)

	ProbeFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_dashboard_probe_failures_total",
			Help: "Total number of media files skipped due to probe failures",
		},
	)
)

// Widget metrics
var (
	WidgetRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_dashboard_widget_refresh_total",
			Help: "Total number of widget cache refreshes by outcome",
		},
		[]string{"widget", "status"}, // widget: "weather", "dollar"; status: "ok", "error"
	)
)
