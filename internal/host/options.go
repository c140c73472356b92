// Package host performs the caller-side work that precedes a synthesis call:
// merging partial options onto defaults, validating them, and wrapping SSML
// fragments in a <speak> envelope.
package host

import (
	"fmt"
	"math"
	"strings"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/synth"
)

// Engine ranges for speaking rate and pitch.
const (
	MinSpeakingRate = 0.5
	MaxSpeakingRate = 6.0
	MinAudioPitch   = 0.0
	MaxAudioPitch   = 2.0
)

// Options are synthesis options as supplied by a caller. Nil fields take
// their value from Defaults.
type Options struct {
	VoiceName    *string  `json:"voiceName,omitempty" yaml:"voice_name,omitempty"`
	SpeakingRate *float64 `json:"speakingRate,omitempty" yaml:"speaking_rate,omitempty"`
	AudioPitch   *float64 `json:"audioPitch,omitempty" yaml:"audio_pitch,omitempty"`
	EnableSSML   *bool    `json:"enableSsml,omitempty" yaml:"enable_ssml,omitempty"`
	EnableTrace  *bool    `json:"enableTrace,omitempty" yaml:"enable_trace,omitempty"`
}

// Defaults applied to unset fields.
var Defaults = synth.SynthesisOptions{
	VoiceName:    "",
	SpeakingRate: 1.0,
	AudioPitch:   1.0,
	EnableSSML:   false,
	EnableTrace:  false,
}

// Resolve merges o onto base.
func (o Options) Resolve(base synth.SynthesisOptions) synth.SynthesisOptions {
	out := base
	if o.VoiceName != nil {
		out.VoiceName = *o.VoiceName
	}
	if o.SpeakingRate != nil {
		out.SpeakingRate = *o.SpeakingRate
	}
	if o.AudioPitch != nil {
		out.AudioPitch = *o.AudioPitch
	}
	if o.EnableSSML != nil {
		out.EnableSSML = *o.EnableSSML
	}
	if o.EnableTrace != nil {
		out.EnableTrace = *o.EnableTrace
	}
	return out
}

// Validate checks resolved options against the engine ranges.
func Validate(opts synth.SynthesisOptions) error {
	if math.IsNaN(opts.SpeakingRate) || opts.SpeakingRate < MinSpeakingRate || opts.SpeakingRate > MaxSpeakingRate {
		return fmt.Errorf("host: speaking rate must be between %.1f and %.1f, got %v", MinSpeakingRate, MaxSpeakingRate, opts.SpeakingRate)
	}
	if math.IsNaN(opts.AudioPitch) || opts.AudioPitch < MinAudioPitch || opts.AudioPitch > MaxAudioPitch {
		return fmt.Errorf("host: audio pitch must be between %.1f and %.1f, got %v", MinAudioPitch, MaxAudioPitch, opts.AudioPitch)
	}
	if strings.ContainsRune(opts.VoiceName, 0) {
		return fmt.Errorf("host: voice name contains a NUL character")
	}
	return nil
}

// String returns a pointer to v, for building Options literals.
func String(v string) *string { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
