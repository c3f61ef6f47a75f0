package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"media-dashboard/internal/logging"
	"media-dashboard/internal/mediatypes"
	"media-dashboard/internal/metrics"
	"media-dashboard/internal/streaming"
	"media-dashboard/internal/transcoder"

	"github.com/gorilla/mux"
)

// StreamVideo is the streaming endpoint. It classifies the requested file and
// either serves it directly with byte-range semantics or pipes a live ffmpeg
// encode to the client.
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["path"]

	// A new request for a path always supersedes the previous one: the
	// client re-seeking, switching tracks, or reconnecting all arrive as a
	// fresh request with the same path.
	h.registry.ForceStop(key)

	if err := h.checkCapabilities(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error:    "Failed to stream video",
			Details:  err.Error(),
			Solution: transcoder.InstallHint,
		})
		return
	}

	fullPath, err := resolveUnderRoot(h.videoDir, key)
	if err != nil {
		logging.Warn("Rejected stream path %q: %v", key, err)
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Invalid path"})
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, errorResponse{Error: "Video not found"})
		return
	}

	if !mediatypes.NeedsTranscoding(fullPath) {
		h.streamDirect(w, r, fullPath)
		return
	}

	opts, err := parseTrackSelection(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid track selection",
			Details: err.Error(),
		})
		return
	}

	h.streamTranscoded(w, r, key, fullPath, opts)
}

// streamDirect serves a browser-native container straight from disk, honoring
// Range requests.
func (h *Handlers) streamDirect(w http.ResponseWriter, r *http.Request, fullPath string) {
	n, err := streaming.ServeFileRange(w, r, fullPath, mediatypes.GetMimeType(fullPath))
	metrics.StreamBytesTotal.WithLabelValues("direct").Add(float64(n))

	if err != nil {
		if errors.Is(err, streaming.ErrInvalidRange) {
			logging.Debug("Rejected range header %q for %s", r.Header.Get("Range"), fullPath)
			return
		}
		// Mid-stream write failures usually mean the client left.
		logging.Debug("Direct stream ended early for %s: %v", fullPath, err)
	}
}

// streamTranscoded runs the TranscodeStreaming leg of the request state
// machine: acquire an encoder slot, spawn and register the session, forward
// its output live, and tear everything down on completion, error, or client
// disconnect.
func (h *Handlers) streamTranscoded(w http.ResponseWriter, r *http.Request, key, fullPath string, opts transcoder.StartOptions) {
	if err := h.limiter.Acquire(r.Context()); err != nil {
		logging.Debug("Stream request canceled while queued: %s", key)
		return
	}
	defer h.limiter.Release()

	sess, err := h.startSession(key, fullPath, h.profile, opts)
	if err != nil {
		logging.Error("Transcoding error: %v", err)
		metrics.TranscodeSessionsTotal.WithLabelValues("failed").Inc()
		writeError(w, http.StatusInternalServerError, errorResponse{
			Error:    "Transcoding failed",
			Details:  err.Error(),
			Solution: transcoder.InstallHint,
		})
		return
	}

	h.registry.Register(key, sess)
	defer h.registry.Release(key, sess)

	// Kill the encoder the moment the client goes away, even while its
	// output pipe is silent and the copy below is blocked in a read.
	// Killing the process closes the pipe, which unblocks that read.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-r.Context().Done():
			sess.Stop()
		case <-done:
		}
	}()

	// Status and headers commit on the first encoded byte, so a pipeline
	// that fails before producing output can still get a 500 below.
	w.Header().Set("Content-Type", "video/mp4")

	n, streamErr := streaming.Copy(r.Context(), w, sess.Output(), h.streamConfig)
	metrics.StreamBytesTotal.WithLabelValues("transcode").Add(float64(n))

	if streamErr != nil {
		// Client disconnect must kill the encoder immediately; it is never
		// left running against a closed socket.
		sess.Stop()
	}
	cmdErr := sess.Wait()

	switch {
	case streamErr != nil:
		metrics.TranscodeSessionsTotal.WithLabelValues("canceled").Inc()
		if errors.Is(streamErr, streaming.ErrClientGone) || errors.Is(streamErr, streaming.ErrWriteTimeout) {
			logging.Debug("Stream ended: %v for %s", streamErr, key)
			return
		}
		logging.Error("Streaming error for %s: %v", key, streamErr)

	case cmdErr != nil:
		// A deliberately stopped session (client disconnect, seek, or a
		// superseding request) exits with a kill error; that is routine
		// teardown, not an encoder failure.
		if sess.Stopped() {
			metrics.TranscodeSessionsTotal.WithLabelValues("canceled").Inc()
			logging.Debug("Transcoding session stopped for %s", key)
			return
		}

		details := cmdErr.Error()
		if stderr := sess.Stderr(); stderr != "" {
			details = stderr
		}
		logging.Error("Transcoding error for %s: %v", key, cmdErr)
		metrics.TranscodeSessionsTotal.WithLabelValues("failed").Inc()

		if n == 0 {
			writeError(w, http.StatusInternalServerError, errorResponse{
				Error:    "Transcoding failed",
				Details:  details,
				Solution: transcoder.InstallHint,
			})
		}
		// With bytes already sent the failure can only surface to the
		// client as an abrupt end of stream.

	default:
		metrics.TranscodeSessionsTotal.WithLabelValues("completed").Inc()
		logging.Debug("Transcode completed for %s: %d bytes", key, n)
	}
}

// parseTrackSelection extracts the optional audio/subtitle query parameters.
// A parameter that is present must be a non-negative integer.
func parseTrackSelection(r *http.Request) (transcoder.StartOptions, error) {
	opts := transcoder.DefaultStartOptions()

	if raw := r.URL.Query().Get("audio"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, errors.New("audio must be a non-negative integer")
		}
		opts.AudioTrack = n
	}

	if raw := r.URL.Query().Get("subtitle"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return opts, errors.New("subtitle must be a non-negative integer")
		}
		opts.SubtitleTrack = n
	}

	return opts, nil
}
