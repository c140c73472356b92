// Package engine describes the platform speech engine the adapter drives.
// The engine itself is a black box: it enumerates voices, synthesizes text or
// SSML asynchronously, and hands back a finished stream carrying audio and
// timing metadata. Strings cross this boundary as wide (UTF-16) strings.
package engine

import (
	"io"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

// Ticks counts 100-nanosecond engine time units.
type Ticks int64

// TicksPerSecond is the number of ticks in one second.
const TicksPerSecond = 10_000_000

// VoiceGender is the engine's gender flag. Zero is male, anything else female.
type VoiceGender uint8

const (
	GenderMale   VoiceGender = 0
	GenderFemale VoiceGender = 1
)

// VoiceInformation is one voice record as enumerated by the engine.
type VoiceInformation struct {
	ID          wide.String
	DisplayName wide.String
	Description wide.String
	Language    wide.String
	Gender      VoiceGender
}

// IsZero reports whether v carries no voice.
func (v VoiceInformation) IsZero() bool {
	return len(v.ID) == 0 && len(v.DisplayName) == 0 && len(v.Description) == 0
}

// Options mirrors the engine's per-synthesizer configuration.
type Options struct {
	SpeakingRate                    float64
	AudioPitch                      float64
	IncludeWordBoundaryMetadata     bool
	IncludeSentenceBoundaryMetadata bool
}

// MediaMarker is a point-in-time event reported by the engine.
type MediaMarker struct {
	MarkerType wide.String
	Text       wide.String
	Time       Ticks
}

// Cue is a time-ranged annotation inside a timed metadata track.
type Cue struct {
	ID        wide.String
	StartTime Ticks
	Duration  Ticks
}

// TimedMetadataTrack groups cues of one kind.
type TimedMetadataTrack struct {
	ID   wide.String
	Cues []Cue
}

// Stream is the completed output of a synthesis operation.
type Stream interface {
	// Size is the number of audio bytes available in the stream.
	Size() uint64
	ContentType() wide.String
	// InputStreamAt returns a reader positioned at pos.
	InputStreamAt(pos uint64) io.Reader
	Markers() []MediaMarker
	TimedMetadataTracks() []TimedMetadataTrack
	Close() error
}

// Operation is an in-flight asynchronous synthesis.
type Operation interface {
	// Done is closed once the operation has completed or failed.
	Done() <-chan struct{}
	// Result returns the outcome. It is only meaningful after Done is closed.
	Result() (Stream, error)
}

// Synthesizer is a single-use synthesis session.
type Synthesizer interface {
	Options() *Options
	// SetVoice selects v. Without a call the engine default voice is used.
	SetVoice(v VoiceInformation)
	SynthesizeTextToStreamAsync(text wide.String) Operation
	SynthesizeSsmlToStreamAsync(ssml wide.String) Operation
}

// Engine is the global entry point of a speech engine. Voice enumeration is
// read-only and safe for concurrent use.
type Engine interface {
	AllVoices() []VoiceInformation
	DefaultVoice() VoiceInformation
	NewSynthesizer() Synthesizer
}
