// Package edge is a speech engine backed by the Microsoft Edge online voices
// through edge-tts-go. Audio arrives as MP3; word boundaries arrive with
// offsets and durations already in 100 ns ticks. The service reports no
// sentence boundaries, so those are derived from the words and the input.
package edge

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"unicode"

	edgetts "github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

// ContentType of the audio produced by the Edge service.
const ContentType = "audio/mpeg"

// Marker types and track ids reported by this engine.
const (
	MarkerWord     = "WordBoundary"
	MarkerSentence = "SentenceBoundary"
	TrackWord      = "SpeechWord"
	TrackSentence  = "SpeechSentence"
)

// request is one synthesis call against the service. Rate and Pitch use the
// service's relative prosody syntax ("+25%", "-10Hz").
type request struct {
	Text  string
	Voice string
	Rate  string
	Pitch string
}

// streamFunc opens a synthesis stream. Each message is either an error
// ({"error": ...}, no type) or typed: "audio" carries "data", "WordBoundary"
// carries "offset", "duration" and "text".
type streamFunc func(req request) (<-chan map[string]interface{}, error)

func communicate(req request) (<-chan map[string]interface{}, error) {
	comm, err := edgetts.NewCommunicate(req.Text,
		edgetts.WithVoice(req.Voice),
		edgetts.WithRate(req.Rate),
		edgetts.WithPitch(req.Pitch),
	)
	if err != nil {
		return nil, fmt.Errorf("edge: create communicate: %w", err)
	}
	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("edge: start stream: %w", err)
	}
	return ch, nil
}

// rateParam maps an engine speaking rate (1 = normal) to a relative percentage.
func rateParam(rate float64) string {
	return fmt.Sprintf("%+d%%", int(math.Round((rate-1)*100)))
}

// pitchParam maps an engine pitch (1 = normal, 0..2) to a shift of up to 50 Hz.
func pitchParam(pitch float64) string {
	return fmt.Sprintf("%+dHz", int(math.Round((pitch-1)*50)))
}

// Engine implements engine.Engine over the Edge read-aloud service.
type Engine struct {
	log          *slog.Logger
	voices       []engine.VoiceInformation
	defaultVoice int
	stream       streamFunc
}

// New returns an Edge engine enumerating catalog.
func New(logger *slog.Logger, catalog Catalog) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	voices, def := catalog.voices()
	return &Engine{
		log:          logger.With("component", "edge_engine"),
		voices:       voices,
		defaultVoice: def,
		stream:       communicate,
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
	return &synthesizer{
		engine:  e,
		options: engine.Options{SpeakingRate: 1, AudioPitch: 1},
		voice:   e.DefaultVoice(),
	}
}

type synthesizer struct {
	engine *Engine

	mu      sync.Mutex
	options engine.Options
	voice   engine.VoiceInformation
}

func (s *synthesizer) Options() *engine.Options {
	return &s.options
}

func (s *synthesizer) SetVoice(v engine.VoiceInformation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice = v
}

func (s *synthesizer) SynthesizeSsmlToStreamAsync(wide.String) engine.Operation {
	return engine.Failed(fmt.Errorf("%w: edge engine does not accept SSML input", engine.ErrUnsupported))
}

func (s *synthesizer) SynthesizeTextToStreamAsync(text wide.String) engine.Operation {
	s.mu.Lock()
	voiceID := s.voice.ID.String()
	opts := s.options
	s.mu.Unlock()

	req := request{
		Text:  text.String(),
		Voice: voiceID,
		Rate:  rateParam(opts.SpeakingRate),
		Pitch: pitchParam(opts.AudioPitch),
	}
	return engine.Go(func() (engine.Stream, error) {
		if req.Text == "" {
			return nil, fmt.Errorf("edge: text is required")
		}
		if req.Voice == "" {
			return nil, fmt.Errorf("edge: voice id is required")
		}
		ch, err := s.engine.stream(req)
		if err != nil {
			return nil, err
		}
		stream, err := collect(ch, req.Text, opts)
		if err != nil {
			return nil, err
		}
		s.engine.log.Info("edge synthesis",
			"voice_id", req.Voice,
			"rate", req.Rate,
			"pitch", req.Pitch,
			"text_length", len(req.Text),
			"bytes", stream.Size(),
			"markers", len(stream.Markers()),
		)
		return stream, nil
	})
}

type wordBoundary struct {
	text     string
	offset   engine.Ticks
	duration engine.Ticks
}

// collect drains ch into a finished stream. An error message fails the whole
// call even when audio already arrived. Sentence boundaries are derived from
// the word boundaries, since the service only reports words.
func collect(ch <-chan map[string]interface{}, input string, opts engine.Options) (*engine.BufferStream, error) {
	var (
		audio bytes.Buffer
		words []wordBoundary
	)

	for msg := range ch {
		if e, ok := msg["error"]; ok {
			go func() {
				for range ch {
				}
			}()
			return nil, fmt.Errorf("edge: service error: %v", e)
		}
		msgType, _ := msg["type"].(string)
		switch msgType {
		case "audio":
			if data, ok := msg["data"].([]byte); ok {
				audio.Write(data)
			}
		case MarkerWord:
			text, _ := msg["text"].(string)
			words = append(words, wordBoundary{
				text:     text,
				offset:   toTicks(msg["offset"]),
				duration: toTicks(msg["duration"]),
			})
		}
	}

	if audio.Len() == 0 {
		return nil, fmt.Errorf("edge: no audio received")
	}

	markers := make([]engine.MediaMarker, 0)
	var wordCues, sentenceCues []engine.Cue
	var sentence []wordBoundary
	closeSentence := func() {
		if len(sentence) == 0 {
			return
		}
		first, last := sentence[0], sentence[len(sentence)-1]
		texts := make([]string, 0, len(sentence))
		for _, w := range sentence {
			texts = append(texts, w.text)
		}
		sentenceCues = append(sentenceCues, engine.Cue{
			ID:        wide.FromString(strings.Join(texts, " ")),
			StartTime: first.offset,
			Duration:  last.offset + last.duration - first.offset,
		})
		sentence = nil
	}

	ends := sentenceEnds(input, words)
	for i, w := range words {
		if len(sentence) == 0 && opts.IncludeSentenceBoundaryMetadata {
			markers = append(markers, marker(MarkerSentence, "", w.offset))
		}
		if opts.IncludeWordBoundaryMetadata {
			markers = append(markers, marker(MarkerWord, w.text, w.offset))
		}
		wordCues = append(wordCues, engine.Cue{
			ID:        wide.FromString(w.text),
			StartTime: w.offset,
			Duration:  w.duration,
		})
		sentence = append(sentence, w)
		if ends[i] {
			closeSentence()
		}
	}
	closeSentence()

	tracks := make([]engine.TimedMetadataTrack, 0, 2)
	if opts.IncludeWordBoundaryMetadata && len(wordCues) > 0 {
		tracks = append(tracks, engine.TimedMetadataTrack{ID: wide.FromString(TrackWord), Cues: wordCues})
	}
	if opts.IncludeSentenceBoundaryMetadata && len(sentenceCues) > 0 {
		tracks = append(tracks, engine.TimedMetadataTrack{ID: wide.FromString(TrackSentence), Cues: sentenceCues})
	}
	return engine.NewBufferStream(ContentType, audio.Bytes(), markers, tracks), nil
}

// sentenceEnds reports, per word, whether the input has a sentence terminator
// between that word and the next letter or digit. Words are located in order
// from a moving cursor; a word that cannot be found never ends a sentence.
func sentenceEnds(input string, words []wordBoundary) []bool {
	ends := make([]bool, len(words))
	cursor := 0
	for i, w := range words {
		if w.text == "" {
			continue
		}
		idx := strings.Index(input[cursor:], w.text)
		if idx < 0 {
			continue
		}
		cursor += idx + len(w.text)
		for _, r := range input[cursor:] {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				break
			}
			if r == '.' || r == '!' || r == '?' {
				ends[i] = true
				break
			}
		}
	}
	return ends
}

func marker(kind, text string, at engine.Ticks) engine.MediaMarker {
	return engine.MediaMarker{
		MarkerType: wide.FromString(kind),
		Text:       wide.FromString(text),
		Time:       at,
	}
}

// toTicks reads a numeric message field. Unknown shapes count as zero.
func toTicks(v interface{}) engine.Ticks {
	switch n := v.(type) {
	case int:
		return engine.Ticks(n)
	case int64:
		return engine.Ticks(n)
	case int32:
		return engine.Ticks(n)
	case uint64:
		return engine.Ticks(n)
	case float64:
		return engine.Ticks(n)
	case float32:
		return engine.Ticks(n)
	default:
		return 0
	}
}
