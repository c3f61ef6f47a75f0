package playlist

import (
	"context"
	"io/fs"
	"math/rand"
	"path/filepath"
	"time"

	"media-dashboard/internal/logging"
	"media-dashboard/internal/mediatypes"
	"media-dashboard/internal/metrics"
	"media-dashboard/internal/probe"

	"github.com/google/uuid"
)

// Entry is one playable video in the shuffled playlist. Entries are
// regenerated on every scan; ids are not stable across scans.
type Entry struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Path        string        `json:"path"`
	Size        int64         `json:"size"`
	ModTime     time.Time     `json:"mtime"`
	Duration    float64       `json:"duration"`
	AudioTracks []probe.Track `json:"audioTracks"`
	Subtitles   []probe.Track `json:"subtitles"`
}

// Prober abstracts media metadata extraction so scans can be tested without
// a real ffprobe binary.
type Prober interface {
	Probe(ctx context.Context, fullPath string) (*probe.Metadata, error)
}

// Scanner walks the video root and builds shuffled playlists.
type Scanner struct {
	root   string
	prober Prober
}

// NewScanner creates a Scanner over the given root directory.
func NewScanner(root string, prober Prober) *Scanner {
	return &Scanner{root: root, prober: prober}
}

// Scan walks the root recursively, probes every recognized video file, and
// returns the entries in shuffled order. A file that fails probing is logged
// and skipped; one corrupt file never aborts the whole scan.
func (s *Scanner) Scan(ctx context.Context) ([]Entry, error) {
	entries := []Entry{}

	err := filepath.WalkDir(s.root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !mediatypes.IsVideoFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Skipping %s: %v", fullPath, err)
			return nil
		}

		meta, err := s.prober.Probe(ctx, fullPath)
		if err != nil {
			logging.Error("Error getting metadata for %s: %v", d.Name(), err)
			metrics.ProbeFailuresTotal.Inc()
			return nil
		}

		rel, err := filepath.Rel(s.root, fullPath)
		if err != nil {
			logging.Warn("Skipping %s: %v", fullPath, err)
			return nil
		}

		entries = append(entries, Entry{
			ID:          uuid.NewString(),
			Name:        d.Name(),
			Path:        filepath.ToSlash(rel),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			Duration:    meta.Duration,
			AudioTracks: meta.AudioTracks,
			Subtitles:   meta.Subtitles,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PlaylistScansTotal.Inc()

	rand.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
	return entries, nil
}
