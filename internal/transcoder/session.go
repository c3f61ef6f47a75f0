package transcoder

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"media-dashboard/internal/logging"
)

// TrackUnset marks an optional track selection as absent.
const TrackUnset = -1

// StartOptions selects the tracks a session encodes.
type StartOptions struct {
	// AudioTrack is the audio stream index to map, or TrackUnset to map the
	// first audio stream if one exists.
	AudioTrack int
	// SubtitleTrack is the subtitle stream index to burn into the video
	// frames, or TrackUnset for no subtitles.
	SubtitleTrack int
}

// DefaultStartOptions returns options with no explicit track selection.
func DefaultStartOptions() StartOptions {
	return StartOptions{AudioTrack: TrackUnset, SubtitleTrack: TrackUnset}
}

// Session wraps one ffmpeg encode-and-mux invocation for one streaming
// request. The session owns the child process for the request's lifetime and
// exposes its stdout as the output byte stream.
type Session struct {
	key      string
	cmd      *exec.Cmd
	stdout   io.ReadCloser
	stderr   bytes.Buffer
	stopOnce sync.Once
	stopped  atomic.Bool
}

// Start spawns an ffmpeg process encoding fullPath with the given profile and
// track selection. The caller owns the returned session: it must drain
// Output, then call Wait, and must arrange Stop on cancellation.
func Start(key, fullPath string, profile Profile, opts StartOptions) (*Session, error) {
	args := buildArgs(fullPath, profile, opts)
	cmd := exec.Command("ffmpeg", args...)

	s := &Session{key: key, cmd: cmd}
	cmd.Stderr = &s.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	s.stdout = stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	logging.Debug("Spawned ffmpeg for %s: ffmpeg %v", key, args)

	return s, nil
}

// Output returns the live encoder output stream.
func (s *Session) Output() io.Reader {
	return s.stdout
}

// Wait reaps the encoder process and returns its exit error, if any.
func (s *Session) Wait() error {
	return s.cmd.Wait()
}

// Stderr returns what the encoder wrote to its error stream, for diagnostics
// after a nonzero exit.
func (s *Session) Stderr() string {
	return strings.TrimSpace(s.stderr.String())
}

// Stopped reports whether the session was deliberately stopped, so a kill
// exit can be told apart from an encoder failure.
func (s *Session) Stopped() bool {
	return s.stopped.Load()
}

// Stop kills the encoder process immediately. Encoders do not reliably honor
// graceful termination mid-stream, so this is an unconditional SIGKILL.
// Stop is idempotent and safe to call from any goroutine; the owning request
// still reaps the process via Wait.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		if s.cmd.Process != nil {
			if err := s.cmd.Process.Kill(); err != nil {
				logging.Debug("failed to kill encoder for %s: %v", s.key, err)
			}
		}
	})
}

// buildArgs constructs the ffmpeg argument list for a session.
//
// Stream mapping: always the first video stream; the requested audio stream
// when given, otherwise the first audio stream if present ("0:a?" suppresses
// the error when a file has no audio). Subtitles are burned into the video
// frames with the subtitles filter rather than muxed as a selectable track.
func buildArgs(fullPath string, profile Profile, opts StartOptions) []string {
	args := []string{
		"-i", fullPath,
		"-f", "mp4",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-movflags", profile.MovFlags,
		"-preset", profile.Preset,
		"-threads", profile.Threads,
		"-crf", profile.CRF,
		"-maxrate", profile.MaxRate,
		"-bufsize", profile.BufSize,
		"-x264opts", profile.X264Opts,
		"-ac", profile.AudioChannels,
		"-b:a", profile.AudioBitrate,
		"-map", "0:v:0",
	}

	if opts.AudioTrack != TrackUnset {
		args = append(args, "-map", fmt.Sprintf("0:a:%d", opts.AudioTrack))
	} else {
		args = append(args, "-map", "0:a?")
	}

	if opts.SubtitleTrack != TrackUnset {
		filter := fmt.Sprintf("subtitles=filename='%s':si=%d", fullPath, opts.SubtitleTrack)
		args = append(args, "-vf", filter)
	}

	return append(args, "pipe:1")
}
