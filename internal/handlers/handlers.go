package handlers

import (
	"context"
	"io"
	"time"

	"media-dashboard/internal/playlist"
	"media-dashboard/internal/startup"
	"media-dashboard/internal/streaming"
	"media-dashboard/internal/transcoder"
	"media-dashboard/internal/widgets"
)

// session is the part of a transcoding session the streaming endpoint drives.
type session interface {
	Output() io.Reader
	Wait() error
	Stderr() string
	Stop()
	Stopped() bool
}

// Handlers carries the explicitly owned collaborators for the HTTP surface.
// Nothing here is ambient process-wide state; everything is injected.
type Handlers struct {
	registry *transcoder.Registry
	limiter  *transcoder.Limiter
	profile  transcoder.Profile
	scanner  *playlist.Scanner
	weather  *widgets.Widget
	dollar   *widgets.Widget
	videoDir string

	streamConfig streaming.Config
	startTime    time.Time

	// Hook points for tests; default to the real toolchain.
	checkCapabilities func(ctx context.Context) error
	startSession      func(key, fullPath string, profile transcoder.Profile, opts transcoder.StartOptions) (session, error)
}

// New wires the handlers with their collaborators.
func New(registry *transcoder.Registry, limiter *transcoder.Limiter, scanner *playlist.Scanner, weather, dollar *widgets.Widget, config *startup.Config) *Handlers {
	return &Handlers{
		registry:          registry,
		limiter:           limiter,
		profile:           transcoder.DefaultProfile(),
		scanner:           scanner,
		weather:           weather,
		dollar:            dollar,
		videoDir:          config.VideoDir,
		streamConfig:      streaming.DefaultConfig(),
		startTime:         time.Now(),
		checkCapabilities: transcoder.CheckCapabilities,
		startSession: func(key, fullPath string, profile transcoder.Profile, opts transcoder.StartOptions) (session, error) {
			return transcoder.Start(key, fullPath, profile, opts)
		},
	}
}
