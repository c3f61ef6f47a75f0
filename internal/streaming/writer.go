package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"media-dashboard/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a write exceeded the configured timeout,
	// typically because the client is receiving data too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the stream
	// completed, detected via the request context being canceled.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates that the stream was canceled
	// programmatically rather than by the client.
	ErrStreamCanceled = errors.New("stream canceled")
)

// Config controls timeout protection for live streams.
type Config struct {
	// WriteTimeout is the maximum time for a single write to the client.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum time between successful writes.
	IdleTimeout time.Duration
	// ChunkSize splits large writes so a stalled client is detected between
	// chunks (0 = write as received).
	ChunkSize int
}

// DefaultConfig returns the settings used for video streams.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ChunkSize:    256 * 1024,
	}
}

// Writer wraps an http.ResponseWriter with timeout protection so a slow or
// vanished client cannot hold the encoder pipe open indefinitely.
type Writer struct {
	w            http.ResponseWriter
	ctx          context.Context
	cancel       context.CancelFunc
	config       Config
	flusher      http.Flusher
	startTime    time.Time
	mu           sync.Mutex
	lastWrite    time.Time
	bytesWritten int64
	closed       bool
}

// NewWriter creates a timeout-protected writer bound to the request context.
func NewWriter(ctx context.Context, w http.ResponseWriter, config Config) *Writer {
	writerCtx, cancel := context.WithCancel(ctx)

	sw := &Writer{
		w:         w,
		ctx:       writerCtx,
		cancel:    cancel,
		config:    config,
		startTime: time.Now(),
		lastWrite: time.Now(),
	}
	if flusher, ok := w.(http.Flusher); ok {
		sw.flusher = flusher
	}

	go sw.idleChecker()

	return sw
}

// Write implements io.Writer with timeout protection.
func (sw *Writer) Write(p []byte) (int, error) {
	sw.mu.Lock()
	closed := sw.closed
	sw.mu.Unlock()
	if closed {
		return 0, ErrStreamCanceled
	}

	select {
	case <-sw.ctx.Done():
		return 0, sw.contextError()
	default:
	}

	if sw.config.ChunkSize <= 0 || len(p) <= sw.config.ChunkSize {
		return sw.writeWithTimeout(p)
	}

	total := 0
	for len(p) > 0 {
		select {
		case <-sw.ctx.Done():
			return total, sw.contextError()
		default:
		}

		chunk := sw.config.ChunkSize
		if len(p) < chunk {
			chunk = len(p)
		}

		n, err := sw.writeWithTimeout(p[:chunk])
		total += n
		if err != nil {
			return total, err
		}
		p = p[chunk:]

		if sw.flusher != nil {
			sw.flusher.Flush()
		}
	}
	return total, nil
}

func (sw *Writer) writeWithTimeout(p []byte) (int, error) {
	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	go func() {
		n, err := sw.w.Write(p)
		resultCh <- writeResult{n, err}
	}()

	select {
	case result := <-resultCh:
		if result.err == nil {
			sw.mu.Lock()
			sw.lastWrite = time.Now()
			sw.bytesWritten += int64(result.n)
			sw.mu.Unlock()
		}
		return result.n, result.err

	case <-time.After(sw.config.WriteTimeout):
		sw.cancel()
		return 0, ErrWriteTimeout

	case <-sw.ctx.Done():
		return 0, sw.contextError()
	}
}

// idleChecker cancels the stream when no data flows for IdleTimeout.
func (sw *Writer) idleChecker() {
	if sw.config.IdleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(sw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.mu.Lock()
			idle := time.Since(sw.lastWrite)
			closed := sw.closed
			sw.mu.Unlock()

			if closed {
				return
			}
			if idle > sw.config.IdleTimeout {
				logging.Warn("Stream idle timeout exceeded: %v", idle)
				sw.cancel()
				return
			}

		case <-sw.ctx.Done():
			return
		}
	}
}

func (sw *Writer) contextError() error {
	if errors.Is(sw.ctx.Err(), context.Canceled) {
		return ErrClientGone
	}
	return ErrStreamCanceled
}

// Close marks the writer as closed and stops the idle checker.
func (sw *Writer) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return nil
	}
	sw.closed = true
	sw.cancel()
	return nil
}

// Stats returns bytes written and elapsed time.
func (sw *Writer) Stats() (int64, time.Duration) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.bytesWritten, time.Since(sw.startTime)
}

// Copy forwards r to the HTTP response with timeout protection, returning the
// number of bytes written. The client disconnecting surfaces as ErrClientGone.
func Copy(ctx context.Context, w http.ResponseWriter, r io.Reader, config Config) (int64, error) {
	sw := NewWriter(ctx, w, config)
	defer func() {
		if err := sw.Close(); err != nil {
			logging.Warn("Failed to close stream writer: %v", err)
		}
	}()

	_, err := io.Copy(sw, r)

	bytesWritten, duration := sw.Stats()
	logging.Debug("Stream finished: %d bytes in %v", bytesWritten, duration)

	return bytesWritten, err
}
