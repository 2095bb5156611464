package reader

import "strings"

// Voice selects one of the two synthesis voice profiles.
type Voice int

const (
	// VoiceAmber is the default warm voice profile.
	VoiceAmber Voice = iota
	// VoiceOnyx is the deeper alternate voice profile.
	VoiceOnyx
)

// String returns the voice profile identifier sent to the synthesis engine.
func (v Voice) String() string {
	switch v {
	case VoiceOnyx:
		return "onyx"
	default:
		return "amber"
	}
}

// Next returns the other voice profile.
func (v Voice) Next() Voice {
	if v == VoiceAmber {
		return VoiceOnyx
	}
	return VoiceAmber
}

// ParseVoice parses a voice identifier, defaulting to VoiceAmber.
func ParseVoice(s string) Voice {
	if strings.EqualFold(strings.TrimSpace(s), "onyx") {
		return VoiceOnyx
	}
	return VoiceAmber
}
