package transcoder

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()

	if p.CRF != "23" {
		t.Errorf("Expected CRF=23, got %s", p.CRF)
	}
	if p.Preset != "veryfast" {
		t.Errorf("Expected Preset=veryfast, got %s", p.Preset)
	}
	if p.Threads != "0" {
		t.Errorf("Expected Threads=0, got %s", p.Threads)
	}
	if p.MovFlags != "faststart+frag_keyframe" {
		t.Errorf("Expected MovFlags=faststart+frag_keyframe, got %s", p.MovFlags)
	}
	if p.MaxRate != "2M" {
		t.Errorf("Expected MaxRate=2M, got %s", p.MaxRate)
	}
	if p.BufSize != "4M" {
		t.Errorf("Expected BufSize=4M, got %s", p.BufSize)
	}
	if p.AudioBitrate != "128k" {
		t.Errorf("Expected AudioBitrate=128k, got %s", p.AudioBitrate)
	}
	if p.AudioChannels != "2" {
		t.Errorf("Expected AudioChannels=2, got %s", p.AudioChannels)
	}
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestBuildArgsDefaults(t *testing.T) {
	args := buildArgs("/videos/movie.mkv", DefaultProfile(), DefaultStartOptions())

	if !hasArgPair(args, "-i", "/videos/movie.mkv") {
		t.Error("Expected input mapping for source file")
	}
	if !hasArgPair(args, "-map", "0:v:0") {
		t.Error("Expected first video stream to be mapped")
	}
	if !hasArgPair(args, "-map", "0:a?") {
		t.Error("Expected optional first-audio mapping when no track selected")
	}
	if !hasArgPair(args, "-c:v", "libx264") {
		t.Error("Expected libx264 video codec")
	}
	if !hasArgPair(args, "-c:a", "aac") {
		t.Error("Expected aac audio codec")
	}
	if !hasArgPair(args, "-f", "mp4") {
		t.Error("Expected mp4 output format")
	}
	if !hasArgPair(args, "-movflags", "faststart+frag_keyframe") {
		t.Error("Expected progressive-download muxer flags")
	}
	if args[len(args)-1] != "pipe:1" {
		t.Errorf("Expected output to stdout, got %s", args[len(args)-1])
	}

	for _, a := range args {
		if a == "-vf" {
			t.Error("Expected no video filter without subtitle selection")
		}
	}
}

func TestBuildArgsAudioTrack(t *testing.T) {
	opts := DefaultStartOptions()
	opts.AudioTrack = 2

	args := buildArgs("/videos/movie.mkv", DefaultProfile(), opts)

	if !hasArgPair(args, "-map", "0:a:2") {
		t.Error("Expected explicit audio stream mapping")
	}
	if hasArgPair(args, "-map", "0:a?") {
		t.Error("Optional audio mapping should not coexist with explicit selection")
	}
}

func TestBuildArgsSubtitleBurnIn(t *testing.T) {
	opts := DefaultStartOptions()
	opts.SubtitleTrack = 1

	args := buildArgs("/videos/movie.mkv", DefaultProfile(), opts)

	found := ""
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-vf" {
			found = args[i+1]
		}
	}
	if found == "" {
		t.Fatal("Expected a subtitles video filter")
	}
	if !strings.Contains(found, "subtitles=") {
		t.Errorf("Expected subtitles filter, got %q", found)
	}
	if !strings.Contains(found, "/videos/movie.mkv") {
		t.Errorf("Expected filter to reference the source file, got %q", found)
	}
	if !strings.Contains(found, "si=1") {
		t.Errorf("Expected subtitle stream index si=1, got %q", found)
	}
}

func TestParseEncoders(t *testing.T) {
	output := `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC
 V....D libx265              libx265 H.265 / HEVC
 A....D aac                  AAC (Advanced Audio Coding)
 A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3)
`

	encoders := parseEncoders(output)

	for _, want := range []string{"libx264", "libx265", "aac", "libmp3lame"} {
		if !encoders[want] {
			t.Errorf("Expected encoder %s to be detected", want)
		}
	}
	if encoders["Video"] || encoders["="] {
		t.Error("Header lines should not be parsed as encoders")
	}
}

func TestCapabilityError(t *testing.T) {
	err := &CapabilityError{Missing: []string{"libx264", "aac"}}

	msg := err.Error()
	if !strings.Contains(msg, "libx264") || !strings.Contains(msg, "aac") {
		t.Errorf("Expected missing encoders in message, got %q", msg)
	}
}

// fakeSession lets registry tests observe forced stops without spawning
// real encoder processes.
type fakeSession struct {
	stopped bool
}

func (f *fakeSession) Stop() { f.stopped = true }

func TestRegistryAtMostOnePerKey(t *testing.T) {
	r := NewRegistry()

	a := &fakeSession{}
	b := &fakeSession{}

	r.Register("movies/film.mkv", a)
	if a.stopped {
		t.Error("First session should not be stopped on registration")
	}

	r.Register("movies/film.mkv", b)
	if !a.stopped {
		t.Error("Registering a second session for the same key must force-stop the first")
	}
	if b.stopped {
		t.Error("Superseding session should stay alive")
	}

	if count := r.ActiveCount(); count != 1 {
		t.Errorf("Expected 1 active session, got %d", count)
	}
}

func TestRegistryDistinctKeys(t *testing.T) {
	r := NewRegistry()

	a := &fakeSession{}
	b := &fakeSession{}

	r.Register("one.mkv", a)
	r.Register("two.mkv", b)

	if a.stopped || b.stopped {
		t.Error("Sessions for distinct keys must not interfere")
	}
	if count := r.ActiveCount(); count != 2 {
		t.Errorf("Expected 2 active sessions, got %d", count)
	}
}

func TestRegistryForceStopIdempotent(t *testing.T) {
	r := NewRegistry()

	// No session registered: must be a no-op
	r.ForceStop("missing.mkv")

	s := &fakeSession{}
	r.Register("file.mkv", s)
	r.ForceStop("file.mkv")

	if !s.stopped {
		t.Error("ForceStop should stop the registered session")
	}
	if count := r.ActiveCount(); count != 0 {
		t.Errorf("Expected 0 active sessions, got %d", count)
	}

	// Second stop for the same key is a no-op
	r.ForceStop("file.mkv")
}

func TestRegistryReleaseKeepsSuccessor(t *testing.T) {
	r := NewRegistry()

	a := &fakeSession{}
	b := &fakeSession{}

	r.Register("file.mkv", a)
	r.Register("file.mkv", b)

	// Predecessor cleanup must not deregister the superseding session.
	r.Release("file.mkv", a)

	if count := r.ActiveCount(); count != 1 {
		t.Errorf("Expected superseding session to survive, got %d active", count)
	}
	if b.stopped {
		t.Error("Superseding session must not be stopped by predecessor release")
	}

	r.Release("file.mkv", b)
	if count := r.ActiveCount(); count != 0 {
		t.Errorf("Expected 0 active sessions, got %d", count)
	}
}

func TestRegistryStopAll(t *testing.T) {
	r := NewRegistry()

	sessions := []*fakeSession{{}, {}, {}}
	for i, s := range sessions {
		r.Register(strings.Repeat("x", i+1)+".mkv", s)
	}

	r.StopAll()

	for i, s := range sessions {
		if !s.stopped {
			t.Errorf("Session %d should be stopped after StopAll", i)
		}
	}
	if count := r.ActiveCount(); count != 0 {
		t.Errorf("Expected 0 active sessions after StopAll, got %d", count)
	}
}

func TestLimiterBoundsConcurrency(t *testing.T) {
	l := NewLimiter(2)

	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("First acquire failed: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Second acquire failed: %v", err)
	}

	if l.Active() != 2 {
		t.Errorf("Expected 2 active slots, got %d", l.Active())
	}

	// Third acquire must block until a slot frees
	acquired := make(chan struct{})
	go func() {
		if err := l.Acquire(ctx); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("Third acquire should block while all slots are taken")
	case <-time.After(50 * time.Millisecond):
	}

	l.Release()

	select {
	case <-acquired:
	case <-time.After(1 * time.Second):
		t.Fatal("Third acquire should proceed after a slot frees")
	}
}

func TestLimiterAcquireCanceled(t *testing.T) {
	l := NewLimiter(1)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Acquire(ctx)
	}()

	// Give the waiter time to enqueue, then cancel it
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Canceled waiter did not return")
	}

	if l.Waiting() != 0 {
		t.Errorf("Expected 0 waiting after cancellation, got %d", l.Waiting())
	}
}

func TestLimiterMinimumOneSlot(t *testing.T) {
	l := NewLimiter(0)

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire on clamped limiter failed: %v", err)
	}
	l.Release()
}
