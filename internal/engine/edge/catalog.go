package edge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

// VoiceEntry describes one voice in a catalog file.
type VoiceEntry struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Gender      string `yaml:"gender"`
}

// Catalog is the voice list the Edge engine enumerates. Default names the
// default voice by id; empty means the first entry.
type Catalog struct {
	Default string       `yaml:"default"`
	Voices  []VoiceEntry `yaml:"voices"`
}

// BuiltinCatalog is used when no catalog file is configured.
var BuiltinCatalog = Catalog{
	Default: "en-US-AriaNeural",
	Voices: []VoiceEntry{
		{ID: "en-US-AriaNeural", DisplayName: "Microsoft Aria Online (Natural)", Description: "Microsoft Aria Online (Natural) - English (United States)", Language: "en-US", Gender: "female"},
		{ID: "en-US-GuyNeural", DisplayName: "Microsoft Guy Online (Natural)", Description: "Microsoft Guy Online (Natural) - English (United States)", Language: "en-US", Gender: "male"},
		{ID: "en-GB-SoniaNeural", DisplayName: "Microsoft Sonia Online (Natural)", Description: "Microsoft Sonia Online (Natural) - English (United Kingdom)", Language: "en-GB", Gender: "female"},
		{ID: "pl-PL-MarekNeural", DisplayName: "Microsoft Marek Online (Natural)", Description: "Microsoft Marek Online (Natural) - Polish (Poland)", Language: "pl-PL", Gender: "male"},
	},
}

// LoadCatalog reads a YAML voice catalog from path.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("edge: read voice catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML voice catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("edge: decode voice catalog: %w", err)
	}
	if len(c.Voices) == 0 {
		return Catalog{}, fmt.Errorf("edge: voice catalog lists no voices")
	}
	for i, v := range c.Voices {
		if strings.TrimSpace(v.ID) == "" {
			return Catalog{}, fmt.Errorf("edge: voice catalog entry %d has no id", i)
		}
		switch strings.ToLower(v.Gender) {
		case "", "male", "female":
		default:
			return Catalog{}, fmt.Errorf("edge: voice %q has unknown gender %q", v.ID, v.Gender)
		}
	}
	return c, nil
}

// voices converts the catalog into engine records and the default index.
func (c Catalog) voices() ([]engine.VoiceInformation, int) {
	out := make([]engine.VoiceInformation, 0, len(c.Voices))
	def := 0
	for i, v := range c.Voices {
		gender := engine.GenderMale
		if strings.EqualFold(v.Gender, "female") {
			gender = engine.GenderFemale
		}
		out = append(out, engine.VoiceInformation{
			ID:          wide.FromString(v.ID),
			DisplayName: wide.FromString(v.DisplayName),
			Description: wide.FromString(v.Description),
			Language:    wide.FromString(v.Language),
			Gender:      gender,
		})
		if v.ID == c.Default {
			def = i
		}
	}
	return out, def
}
