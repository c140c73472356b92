// Package stub is a deterministic speech engine for CI and tests. It renders
// silence whose length follows the spoken words and reports word, sentence
// and bookmark boundaries the way a platform engine would.
package stub

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/audio"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

const (
	// ContentType of every stub stream.
	ContentType = "audio/wav"

	// WordTicks is the time one word takes at speaking rate 1.0 (200 ms).
	WordTicks engine.Ticks = 2_000_000

	// Marker types, matching the platform engine's names.
	MarkerWord     = "WordBoundary"
	MarkerSentence = "SentenceBoundary"
	MarkerBookmark = "Bookmark"

	// Timed metadata track ids.
	TrackWord     = "SpeechWord"
	TrackSentence = "SpeechSentence"
)

// Format of the rendered audio.
var Format = audio.Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// Voice builds an engine voice record from UTF-8 fields.
func Voice(id, displayName, description, language string, gender engine.VoiceGender) engine.VoiceInformation {
	return engine.VoiceInformation{
		ID:          wide.FromString(id),
		DisplayName: wide.FromString(displayName),
		Description: wide.FromString(description),
		Language:    wide.FromString(language),
		Gender:      gender,
	}
}

const tokenPrefix = `HKEY_LOCAL_MACHINE\SOFTWARE\Microsoft\Speech_OneCore\Voices\Tokens\`

// DefaultVoices is the voice list of an engine built with New.
var DefaultVoices = []engine.VoiceInformation{
	Voice(tokenPrefix+"MSTTS_V110_enUS_DavidM", "Microsoft David", "Microsoft David - English (United States)", "en-US", engine.GenderMale),
	Voice(tokenPrefix+"MSTTS_V110_enUS_ZiraM", "Microsoft Zira", "Microsoft Zira - English (United States)", "en-US", engine.GenderFemale),
	Voice(tokenPrefix+"MSTTS_V110_enGB_GeorgeM", "Microsoft George", "Microsoft George - English (United Kingdom)", "en-GB", engine.GenderMale),
	Voice(tokenPrefix+"MSTTS_V110_plPL_PaulinaM", "Microsoft Paulina", "Microsoft Paulina - Polish (Poland)", "pl-PL", engine.GenderFemale),
}

// Engine implements engine.Engine with deterministic output.
type Engine struct {
	log          *slog.Logger
	voices       []engine.VoiceInformation
	defaultVoice int
}

// New returns a stub engine with DefaultVoices; the first voice is the default.
func New(logger *slog.Logger) *Engine {
	return NewWithVoices(logger, DefaultVoices, 0)
}

// NewWithVoices returns a stub engine enumerating voices, with
// voices[defaultIndex] as the default voice.
func NewWithVoices(logger *slog.Logger, voices []engine.VoiceInformation, defaultIndex int) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultIndex < 0 || defaultIndex >= len(voices) {
		defaultIndex = 0
	}
	return &Engine{
		log:          logger.With("component", "stub_engine"),
		voices:       append([]engine.VoiceInformation(nil), voices...),
		defaultVoice: defaultIndex,
	}
}

func (e *Engine) AllVoices() []engine.VoiceInformation {
	return append([]engine.VoiceInformation(nil), e.voices...)
}

func (e *Engine) DefaultVoice() engine.VoiceInformation {
	if len(e.voices) == 0 {
		return engine.VoiceInformation{}
	}
	return e.voices[e.defaultVoice]
}

func (e *Engine) NewSynthesizer() engine.Synthesizer {
	return &Synthesizer{
		engine:  e,
		options: engine.Options{SpeakingRate: 1, AudioPitch: 1},
		voice:   e.DefaultVoice(),
	}
}

// Synthesizer is a stub synthesis session. The exported accessors let tests
// inspect how it was configured.
type Synthesizer struct {
	engine *Engine

	mu      sync.Mutex
	options engine.Options
	voice   engine.VoiceInformation
}

func (s *Synthesizer) Options() *engine.Options {
	return &s.options
}

func (s *Synthesizer) SetVoice(v engine.VoiceInformation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = v
}

// Voice returns the currently selected voice.
func (s *Synthesizer) Voice() engine.VoiceInformation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

func (s *Synthesizer) SynthesizeTextToStreamAsync(text wide.String) engine.Operation {
	doc := plainDocument(text.String())
	return s.start(doc)
}

func (s *Synthesizer) SynthesizeSsmlToStreamAsync(ssml wide.String) engine.Operation {
	doc, err := parseSSML(ssml.String())
	if err != nil {
		return engine.Failed(err)
	}
	return s.start(doc)
}

func (s *Synthesizer) start(doc document) engine.Operation {
	opts := s.options
	voice := s.Voice()
	return engine.Go(func() (engine.Stream, error) {
		stream := render(doc, opts)
		s.engine.log.Info("stub synthesis",
			"voice", voice.DisplayName.String(),
			"words", doc.wordCount(),
			"bytes", stream.Size(),
		)
		return stream, nil
	})
}

// plainDocument treats text as literal spoken words.
func plainDocument(text string) document {
	var doc document
	doc.addText(text)
	return doc
}

// wordCount returns the number of spoken words in doc.
func (d document) wordCount() int {
	n := 0
	for _, it := range d.items {
		if it.kind == itemWord {
			n++
		}
	}
	return n
}

func isSentenceEnd(word string) bool {
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?")
}
