package synth

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/telemetry"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

// Bridge exposes the host-callable operations over one speech engine. Calls
// are independent and may run concurrently.
type Bridge struct {
	engine  engine.Engine
	catalog Catalog
	log     *slog.Logger
	metrics *telemetry.Recorder
	trace   io.Writer
}

// NewBridge returns a Bridge driving eng.
func NewBridge(eng engine.Engine, logger *slog.Logger, metrics *telemetry.Recorder) *Bridge {
	if eng == nil {
		panic("synth: engine must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = telemetry.NewRecorder(logger)
	}
	return &Bridge{
		engine:  eng,
		catalog: NewCatalog(eng),
		log:     logger.With("component", "synth"),
		metrics: metrics,
		trace:   os.Stdout,
	}
}

// SetTraceOutput redirects the EnableTrace progress lines. The default is
// standard output.
func (b *Bridge) SetTraceOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	b.trace = w
}

// IsLoaded reports that the bridge is usable. It is always true once
// constructed.
func (b *Bridge) IsLoaded() bool {
	return true
}

// VoiceList returns all engine voices in enumeration order.
func (b *Bridge) VoiceList() []VoiceDescriptor {
	return b.catalog.List()
}

// VoiceInfo resolves name against voice id, display name and description.
func (b *Bridge) VoiceInfo(name string) (VoiceDescriptor, bool) {
	return b.catalog.Find(name)
}

// DefaultVoiceInfo returns the engine's default voice.
func (b *Bridge) DefaultVoiceInfo() VoiceDescriptor {
	return b.catalog.Default()
}

// Synthesize converts text to speech and returns the whole audio buffer with
// its markers and timed metadata tracks. An unknown voice name falls back to
// the engine default. Engine and read failures abort the call without a
// partial result.
func (b *Bridge) Synthesize(text string, opts SynthesisOptions) (SynthesisResult, error) {
	logEntry := b.log.With(
		"call_id", uuid.NewString(),
		"text_length", len(text),
		"ssml", opts.EnableSSML,
	)
	start := time.Now()

	wtext := wide.FromString(text)
	voice, found := b.catalog.lookup(wide.FromString(opts.VoiceName))
	if found {
		logEntry = logEntry.With("voice_id", voice.ID.String())
	} else {
		logEntry.Debug("voice not found, using engine default", "voice_name", opts.VoiceName)
		b.metrics.VoiceFallback()
	}

	synthesizer := b.engine.NewSynthesizer()
	configure(synthesizer, opts, voice, found)

	stream, err := run(synthesizer, wtext, opts, b.trace)
	if err != nil {
		logEntry.Error("synthesis failed", "error", err)
		b.metrics.ObserveSynthesis(telemetry.OutcomeFailure, time.Since(start), 0)
		return SynthesisResult{}, err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil {
			logEntry.Warn("failed to close speech stream", "error", cerr)
		}
	}()

	result, err := extract(stream)
	if err != nil {
		logEntry.Error("failed to extract synthesis result", "error", err)
		b.metrics.ObserveSynthesis(telemetry.OutcomeFailure, time.Since(start), 0)
		return SynthesisResult{}, err
	}

	elapsed := time.Since(start)
	b.metrics.ObserveSynthesis(telemetry.OutcomeSuccess, elapsed, len(result.AudioData))
	logEntry.Debug("synthesis completed",
		"content_type", result.AudioContentType,
		"audio_bytes", len(result.AudioData),
		"markers", len(result.Markers),
		"tracks", len(result.TimedMetadataTracks),
		"duration_sec", elapsed.Seconds(),
	)
	return result, nil
}
