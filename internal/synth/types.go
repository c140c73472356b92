// Package synth is the marshalling and result-extraction pipeline between a
// host and the speech engine: it resolves voices, configures and runs a
// synthesis, and copies audio and timing metadata out of the finished engine
// stream.
package synth

// Gender of a voice as reported to the host.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// VoiceDescriptor is a snapshot of one engine voice. It holds no reference
// back to the engine.
type VoiceDescriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Gender      Gender `json:"gender"`
}

// SynthesisOptions configures one Synthesize call. Values are expected to be
// validated by the caller; the pipeline passes them through unchanged.
type SynthesisOptions struct {
	// VoiceName is matched against voice id, display name and description.
	VoiceName    string  `json:"voiceName"`
	SpeakingRate float64 `json:"speakingRate"`
	AudioPitch   float64 `json:"audioPitch"`
	// EnableSSML selects SSML input instead of plain text.
	EnableSSML bool `json:"enableSsml"`
	// EnableTrace prints progress lines around the engine wait.
	EnableTrace bool `json:"enableTrace"`
}

// Marker is a point-in-time boundary event, time in seconds.
type Marker struct {
	Type string  `json:"type"`
	Name string  `json:"name"`
	Time float64 `json:"time"`
}

// Cue is a time-ranged annotation, times in seconds.
type Cue struct {
	ID        string  `json:"id"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
}

// TimedTrack is an ordered list of cues.
type TimedTrack struct {
	ID   string `json:"id"`
	Cues []Cue  `json:"cues"`
}

// SynthesisResult is the complete output of a Synthesize call. Sequences are
// in engine order and never nil.
type SynthesisResult struct {
	AudioContentType    string       `json:"audioContentType"`
	AudioData           []byte       `json:"audioData"`
	Markers             []Marker     `json:"markers"`
	TimedMetadataTracks []TimedTrack `json:"timedMetadataTracks"`
}
