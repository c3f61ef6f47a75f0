package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// InstallHint is the remediation text returned with codec-related failures.
const InstallHint = "Please ensure FFmpeg is installed with libx264 and aac codecs. On Ubuntu/Debian, run: sudo apt install ffmpeg"

// requiredEncoders are the codecs every streaming session depends on.
var requiredEncoders = []string{"libx264", "aac"}

// CapabilityError reports encoders missing from the local ffmpeg build.
type CapabilityError struct {
	Missing []string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("missing required encoders: %s", strings.Join(e.Missing, ", "))
}

// CheckCapabilities verifies that ffmpeg is installed and can encode with
// libx264 and aac. It runs `ffmpeg -encoders` each call rather than caching
// the result, so capability detection is always current.
func CheckCapabilities(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg is not properly installed: %w", err)
	}

	available := parseEncoders(stdout.String())

	var missing []string
	for _, enc := range requiredEncoders {
		if !available[enc] {
			missing = append(missing, enc)
		}
	}
	if len(missing) > 0 {
		return &CapabilityError{Missing: missing}
	}
	return nil
}

// parseEncoders extracts encoder names from `ffmpeg -encoders` output. Lines
// look like " V..... libx264  H.264 / AVC ..." after a "------" separator.
func parseEncoders(output string) map[string]bool {
	encoders := make(map[string]bool)
	inList := false

	for _, line := range strings.Split(output, "\n") {
		if !inList {
			if strings.Contains(line, "------") {
				inList = true
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		encoders[fields[1]] = true
	}

	return encoders
}
