package streaming

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"media-dashboard/internal/logging"
)

// ErrInvalidRange indicates a malformed or unsatisfiable Range header.
var ErrInvalidRange = errors.New("invalid byte range")

// ByteRange is a closed interval of file offsets.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (br ByteRange) Length() int64 {
	return br.End - br.Start + 1
}

// ParseRange parses a Range request header of the form "bytes=start-end"
// against a file of the given size. A missing end defaults to size-1; an end
// past the file is clamped. Suffix ranges ("bytes=-n") cover the last n
// bytes. Returns nil for an empty header. Multi-range requests and
// syntactically malformed headers yield ErrInvalidRange.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return nil, ErrInvalidRange
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	if strings.TrimSpace(startStr) == "" {
		n, err := strconv.ParseInt(strings.TrimSpace(endStr), 10, 64)
		if err != nil || n <= 0 || size == 0 {
			return nil, ErrInvalidRange
		}
		start := size - n
		if start < 0 {
			start = 0
		}
		return &ByteRange{Start: start, End: size - 1}, nil
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, ErrInvalidRange
	}
	if start >= size {
		return nil, ErrInvalidRange
	}

	end := size - 1
	if s := strings.TrimSpace(endStr); s != "" {
		end, err = strconv.ParseInt(s, 10, 64)
		if err != nil || end < start {
			return nil, ErrInvalidRange
		}
		if end >= size {
			end = size - 1
		}
	}

	return &ByteRange{Start: start, End: end}, nil
}

// ServeFileRange serves a file with HTTP byte-range semantics: 200 with the
// whole file when no Range header is present, 206 with the requested span
// otherwise, 416 on a malformed or unsatisfiable range. Returns the number of
// body bytes written.
func ServeFileRange(w http.ResponseWriter, r *http.Request, fullPath, contentType string) (int64, error) {
	file, err := os.Open(fullPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close file %s: %v", fullPath, err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()

	br, err := ParseRange(r.Header.Get("Range"), size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return 0, err
	}

	w.Header().Set("Content-Type", contentType)

	if br == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		return io.Copy(w, file)
	}

	if _, err := file.Seek(br.Start, io.SeekStart); err != nil {
		return 0, err
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.Start, br.End, size))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	w.WriteHeader(http.StatusPartialContent)

	return io.CopyN(w, file, br.Length())
}
