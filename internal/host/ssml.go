package host

import (
	"fmt"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/synth"
)

// VoiceSource answers voice queries; *synth.Bridge satisfies it.
type VoiceSource interface {
	VoiceInfo(name string) (synth.VoiceDescriptor, bool)
	DefaultVoiceInfo() synth.VoiceDescriptor
}

// VoiceLanguage returns the language of the voice opts will synthesize with:
// the named voice if it resolves, the engine default otherwise.
func VoiceLanguage(voices VoiceSource, voiceName string) string {
	if voiceName != "" {
		if v, ok := voices.VoiceInfo(voiceName); ok {
			return v.Language
		}
	}
	return voices.DefaultVoiceInfo().Language
}

// PrepareText returns the text to hand to Synthesize. In SSML mode the text
// is an SSML fragment and is wrapped in a <speak> element carrying the voice
// language; plain text is returned unchanged.
func PrepareText(voices VoiceSource, text string, opts synth.SynthesisOptions) string {
	if !opts.EnableSSML {
		return text
	}
	lang := VoiceLanguage(voices, opts.VoiceName)
	return fmt.Sprintf("\n<speak version=\"1.0\" xmlns=\"http://www.w3.org/2001/10/synthesis\" xml:lang=\"%s\">\n%s\n</speak>\n", lang, text)
}
