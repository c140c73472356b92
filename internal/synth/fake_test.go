package synth

import (
	"bytes"
	"io"
	"sync"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

// fakeEngine records how the pipeline drives it.
type fakeEngine struct {
	voices       []engine.VoiceInformation
	defaultVoice engine.VoiceInformation
	stream       engine.Stream
	err          error

	mu          sync.Mutex
	synthesizer *fakeSynthesizer
}

func (f *fakeEngine) AllVoices() []engine.VoiceInformation { return f.voices }

func (f *fakeEngine) DefaultVoice() engine.VoiceInformation { return f.defaultVoice }

func (f *fakeEngine) NewSynthesizer() engine.Synthesizer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthesizer = &fakeSynthesizer{engine: f}
	return f.synthesizer
}

func (f *fakeEngine) last() *fakeSynthesizer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.synthesizer
}

type fakeSynthesizer struct {
	engine *fakeEngine

	options  engine.Options
	voice    engine.VoiceInformation
	voiceSet bool
	text     wide.String
	ssml     bool
}

func (s *fakeSynthesizer) Options() *engine.Options { return &s.options }

func (s *fakeSynthesizer) SetVoice(v engine.VoiceInformation) {
	s.voice = v
	s.voiceSet = true
}

func (s *fakeSynthesizer) SynthesizeTextToStreamAsync(text wide.String) engine.Operation {
	s.text = text
	return s.op()
}

func (s *fakeSynthesizer) SynthesizeSsmlToStreamAsync(ssml wide.String) engine.Operation {
	s.text = ssml
	s.ssml = true
	return s.op()
}

func (s *fakeSynthesizer) op() engine.Operation {
	stream, err := s.engine.stream, s.engine.err
	return engine.Go(func() (engine.Stream, error) {
		return stream, err
	})
}

// fakeStream reports size but serves data, so a shorter data slice simulates
// a short read.
type fakeStream struct {
	size        uint64
	data        []byte
	contentType string
	markers     []engine.MediaMarker
	tracks      []engine.TimedMetadataTrack
	readErr     error

	closed int
}

func (s *fakeStream) Size() uint64 { return s.size }

func (s *fakeStream) ContentType() wide.String { return wide.FromString(s.contentType) }

func (s *fakeStream) InputStreamAt(pos uint64) io.Reader {
	if s.readErr != nil {
		return errReader{s.readErr}
	}
	return bytes.NewReader(s.data[pos:])
}

func (s *fakeStream) Markers() []engine.MediaMarker { return s.markers }

func (s *fakeStream) TimedMetadataTracks() []engine.TimedMetadataTrack { return s.tracks }

func (s *fakeStream) Close() error {
	s.closed++
	return nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func voice(id, name, description string, gender engine.VoiceGender) engine.VoiceInformation {
	return engine.VoiceInformation{
		ID:          wide.FromString(id),
		DisplayName: wide.FromString(name),
		Description: wide.FromString(description),
		Language:    wide.FromString("en-US"),
		Gender:      gender,
	}
}
