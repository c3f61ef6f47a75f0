// Package main provides the entry point for the Media Dashboard backend.
//
// Media Dashboard is a self-hosted backend for a home media wall: it streams
// a video library to a browser (transcoding on the fly when the container is
// not browser-native), builds shuffled playlists from a directory scan, and
// serves small dashboard widgets (weather, currency rates) from TTL caches
// that persist across restarts.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables (a .env file is
//     honored) and validates the video and cache directories
//  2. Toolchain Check: Verifies ffmpeg is present with the required codecs;
//     a failure is logged with a remediation hint but is not fatal
//  3. Component Initialization: transcoding session registry and encoder
//     slot limiter, playlist scanner, widget fetchers with disk-backed caches
//  4. Widget Scheduler: refreshes widget caches on a fixed interval, with an
//     immediate fetch for any cache that came up cold
//  5. HTTP Server Setup: routes, metrics/logging/CORS middleware, and an
//     optional separate metrics listener
//  6. Graceful Shutdown: SIGINT/SIGTERM stops the scheduler, kills live
//     ffmpeg sessions, and drains the HTTP servers
package main
