package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// Track describes one audio or subtitle stream inside a media container.
type Track struct {
	Index    int    `json:"index"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Codec    string `json:"codec"`
}

// Metadata is the result of probing a media file.
type Metadata struct {
	Duration    float64 `json:"duration"`
	AudioTracks []Track `json:"audioTracks"`
	Subtitles   []Track `json:"subtitles"`
}

// Prober extracts duration and track information from media files via ffprobe.
type Prober struct{}

// New creates a new Prober.
func New() *Prober {
	return &Prober{}
}

// Probe runs ffprobe once against filePath and returns the parsed metadata.
// Missing optional tags (language, title) resolve to defaults, never an error.
func (p *Prober) Probe(ctx context.Context, filePath string) (*Metadata, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe error for %s: %w - %s", filePath, err, stderr.String())
	}

	return parseOutput(stdout.Bytes())
}

// ffprobe JSON shapes. Duration arrives as a string in the format section.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	Index     int               `json:"index"`
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Tags      map[string]string `json:"tags"`
}

func parseOutput(data []byte) (*Metadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	meta := &Metadata{
		AudioTracks: []Track{},
		Subtitles:   []Track{},
	}

	if out.Format.Duration != "" {
		if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil && d >= 0 {
			meta.Duration = d
		}
	}

	for _, s := range out.Streams {
		switch s.CodecType {
		case "audio":
			meta.AudioTracks = append(meta.AudioTracks, newTrack(s, "Audio"))
		case "subtitle":
			meta.Subtitles = append(meta.Subtitles, newTrack(s, "Subtitle"))
		}
	}

	return meta, nil
}

func newTrack(s ffprobeStream, kind string) Track {
	track := Track{
		Index:    s.Index,
		Language: s.Tags["language"],
		Title:    s.Tags["title"],
		Codec:    s.CodecName,
	}
	if track.Language == "" {
		track.Language = "und"
	}
	if track.Title == "" {
		track.Title = fmt.Sprintf("%s Track %d", kind, s.Index+1)
	}
	return track
}
