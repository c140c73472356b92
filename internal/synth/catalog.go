package synth

import (
	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

// Catalog answers voice queries against the engine's enumeration. It keeps
// no state of its own; every call reads the engine afresh.
type Catalog struct {
	engine engine.Engine
}

// NewCatalog returns a Catalog over eng.
func NewCatalog(eng engine.Engine) Catalog {
	return Catalog{engine: eng}
}

// List returns every engine voice in enumeration order.
func (c Catalog) List() []VoiceDescriptor {
	voices := c.engine.AllVoices()
	out := make([]VoiceDescriptor, 0, len(voices))
	for _, v := range voices {
		out = append(out, describe(v))
	}
	return out
}

// Find returns the first voice whose id, display name or description equals
// name. A miss is reported through the boolean, never as an error.
func (c Catalog) Find(name string) (VoiceDescriptor, bool) {
	v, ok := c.lookup(wide.FromString(name))
	if !ok {
		return VoiceDescriptor{}, false
	}
	return describe(v), true
}

// Default returns the engine's default voice.
func (c Catalog) Default() VoiceDescriptor {
	return describe(c.engine.DefaultVoice())
}

// lookup is a single scan over all three fields per voice, so an earlier
// voice matching by description wins over a later one matching by id.
func (c Catalog) lookup(name wide.String) (engine.VoiceInformation, bool) {
	for _, v := range c.engine.AllVoices() {
		if wide.Equal(v.ID, name) || wide.Equal(v.DisplayName, name) || wide.Equal(v.Description, name) {
			return v, true
		}
	}
	return engine.VoiceInformation{}, false
}

func describe(v engine.VoiceInformation) VoiceDescriptor {
	gender := GenderMale
	if v.Gender != 0 {
		gender = GenderFemale
	}
	return VoiceDescriptor{
		ID:          v.ID.String(),
		DisplayName: v.DisplayName.String(),
		Description: v.Description.String(),
		Language:    v.Language.String(),
		Gender:      gender,
	}
}
