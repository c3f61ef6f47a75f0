package streaming

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.WriteTimeout != 30*time.Second {
		t.Errorf("Expected WriteTimeout=30s, got %v", config.WriteTimeout)
	}
	if config.IdleTimeout != 60*time.Second {
		t.Errorf("Expected IdleTimeout=60s, got %v", config.IdleTimeout)
	}
	if config.ChunkSize != 256*1024 {
		t.Errorf("Expected ChunkSize=256KB, got %d", config.ChunkSize)
	}
}

func TestWriterWrite(t *testing.T) {
	w := httptest.NewRecorder()
	sw := NewWriter(context.Background(), w, DefaultConfig())
	defer sw.Close()

	data := []byte("test data")
	n, err := sw.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected %d bytes written, got %d", len(data), n)
	}

	bytesWritten, _ := sw.Stats()
	if bytesWritten != int64(len(data)) {
		t.Errorf("Expected Stats bytes=%d, got %d", len(data), bytesWritten)
	}
	if w.Body.String() != "test data" {
		t.Errorf("Unexpected body: %q", w.Body.String())
	}
}

func TestWriterChunking(t *testing.T) {
	w := httptest.NewRecorder()
	config := DefaultConfig()
	config.ChunkSize = 10

	sw := NewWriter(context.Background(), w, config)
	defer sw.Close()

	data := []byte(strings.Repeat("x", 95))
	n, err := sw.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 95 {
		t.Errorf("Expected 95 bytes written, got %d", n)
	}
	if !bytes.Equal(w.Body.Bytes(), data) {
		t.Error("Chunked write corrupted the payload")
	}
}

func TestWriterWriteAfterClose(t *testing.T) {
	w := httptest.NewRecorder()
	sw := NewWriter(context.Background(), w, DefaultConfig())

	if err := sw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Second close is safe
	if err := sw.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}

	if _, err := sw.Write([]byte("data")); !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("Expected ErrStreamCanceled, got %v", err)
	}
}

func TestWriterClientDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := httptest.NewRecorder()

	sw := NewWriter(ctx, w, DefaultConfig())
	defer sw.Close()

	cancel()

	if _, err := sw.Write([]byte("data")); !errors.Is(err, ErrClientGone) {
		t.Errorf("Expected ErrClientGone after context cancel, got %v", err)
	}
}

func TestCopy(t *testing.T) {
	w := httptest.NewRecorder()
	src := strings.NewReader("streamed payload")

	n, err := Copy(context.Background(), w, src, DefaultConfig())
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if n != int64(len("streamed payload")) {
		t.Errorf("Expected %d bytes, got %d", len("streamed payload"), n)
	}
	if w.Body.String() != "streamed payload" {
		t.Errorf("Unexpected body: %q", w.Body.String())
	}
}

func TestCopyClientGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	_, err := Copy(ctx, w, strings.NewReader("payload"), DefaultConfig())
	if !errors.Is(err, ErrClientGone) {
		t.Errorf("Expected ErrClientGone, got %v", err)
	}
}
