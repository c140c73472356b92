package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/host"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/synth"
)

// Request metadata keys that override the configured synthesis options.
const (
	metaVoiceName    = "voice_name"
	metaSpeakingRate = "speaking_rate"
	metaAudioPitch   = "audio_pitch"
	metaEnableSSML   = "enable_ssml"
	metaLanguage     = "nupi.lang.iso1"
)

// requestOptions extracts per-request overrides from metadata. Blank values
// are ignored.
func requestOptions(metadata map[string]string) (host.Options, error) {
	var opts host.Options
	if v := strings.TrimSpace(metadata[metaVoiceName]); v != "" {
		opts.VoiceName = host.String(v)
	}
	if v := strings.TrimSpace(metadata[metaSpeakingRate]); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return host.Options{}, fmt.Errorf("invalid %s %q", metaSpeakingRate, v)
		}
		opts.SpeakingRate = host.Float(f)
	}
	if v := strings.TrimSpace(metadata[metaAudioPitch]); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return host.Options{}, fmt.Errorf("invalid %s %q", metaAudioPitch, v)
		}
		opts.AudioPitch = host.Float(f)
	}
	if v := strings.TrimSpace(metadata[metaEnableSSML]); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return host.Options{}, fmt.Errorf("invalid %s %q", metaEnableSSML, v)
		}
		opts.EnableSSML = host.Bool(b)
	}
	return opts, nil
}

// voiceForLanguage picks the first voice whose language matches the ISO 639-1
// code in nupi.lang.iso1. It returns "" (engine default) when the code is
// absent or no voice speaks it.
func voiceForLanguage(voices []synth.VoiceDescriptor, metadata map[string]string) string {
	code := strings.TrimSpace(metadata[metaLanguage])
	if code == "" {
		return ""
	}
	for _, v := range voices {
		primary, _, _ := strings.Cut(v.Language, "-")
		if strings.EqualFold(primary, code) {
			return v.ID
		}
	}
	return ""
}
