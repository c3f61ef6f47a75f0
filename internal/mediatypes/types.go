package mediatypes

import (
	"path/filepath"
	"strings"
)

// VideoExtensions maps file extensions to whether they are recognized video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
	".mov":  true,
	".flv":  true,
}

// DirectPlayContainers maps file extensions browsers can play natively, so the
// file can be served with byte-range semantics instead of going through ffmpeg.
// Note this is a container check only: an .mp4 carrying an incompatible codec
// still bypasses transcoding.
var DirectPlayContainers = map[string]bool{
	".mp4":  true,
	".webm": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".flv":  "video/x-flv",
}

// IsVideoFile returns true if the file name has a recognized video extension.
func IsVideoFile(name string) bool {
	return VideoExtensions[normalizeExt(name)]
}

// NeedsTranscoding decides whether a file must go through the encoder before a
// browser can play it. It is a pure function of the extension, case-insensitive.
func NeedsTranscoding(name string) bool {
	return !DirectPlayContainers[normalizeExt(name)]
}

// GetMimeType returns the MIME type for a file name, or
// "application/octet-stream" if the extension is not recognized.
func GetMimeType(name string) string {
	if mime, ok := MimeTypes[normalizeExt(name)]; ok {
		return mime
	}
	return "application/octet-stream"
}

func normalizeExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}
