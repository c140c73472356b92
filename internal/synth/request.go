package synth

import "github.com/nupi-ai/plugin-tts-windows-media/internal/engine"

// configure copies opts onto a fresh synthesizer. Boundary metadata is always
// requested because extraction depends on it. The voice is only set when the
// lookup succeeded; otherwise the engine keeps its own default.
func configure(s engine.Synthesizer, opts SynthesisOptions, voice engine.VoiceInformation, found bool) {
	o := s.Options()
	o.SpeakingRate = opts.SpeakingRate
	o.AudioPitch = opts.AudioPitch
	o.IncludeWordBoundaryMetadata = true
	o.IncludeSentenceBoundaryMetadata = true

	if found {
		s.SetVoice(voice)
	}
}
