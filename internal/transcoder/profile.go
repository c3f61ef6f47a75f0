package transcoder

// Profile bundles the encoder settings applied to every transcoding session.
// It is fixed at process start; per-request variation is limited to track
// selection and subtitle burn-in.
type Profile struct {
	// CRF is the x264 constant rate factor (quality target).
	CRF string
	// Preset is the x264 encoder speed preset.
	Preset string
	// Threads is the encoder thread count ("0" = auto).
	Threads string
	// MovFlags are the mp4 muxer flags. faststart+frag_keyframe lets
	// playback begin before the whole output exists.
	MovFlags string
	// MaxRate bounds bitrate spikes.
	MaxRate string
	// BufSize is the rate-control buffer size.
	BufSize string
	// X264Opts carries encoder-specific tuning.
	X264Opts string
	// AudioBitrate is the aac bitrate.
	AudioBitrate string
	// AudioChannels is the output channel count.
	AudioChannels string
}

// DefaultProfile returns the encoder settings used for live streaming output.
func DefaultProfile() Profile {
	return Profile{
		CRF:           "23",
		Preset:        "veryfast",
		Threads:       "0",
		MovFlags:      "faststart+frag_keyframe",
		MaxRate:       "2M",
		BufSize:       "4M",
		X264Opts:      "no-scenecut",
		AudioBitrate:  "128k",
		AudioChannels: "2",
	}
}
