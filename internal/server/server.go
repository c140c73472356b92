package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	napv1 "github.com/nupi-ai/nupi/api/nap/v1"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/adapterinfo"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/audio"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/config"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/host"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/synth"
)

const chunkSize = 4096 // bytes per chunk (~128ms at 16kHz mono PCM16)

// Synthesizer is the bridge surface the server drives. *synth.Bridge
// implements it.
type Synthesizer interface {
	VoiceList() []synth.VoiceDescriptor
	VoiceInfo(name string) (synth.VoiceDescriptor, bool)
	DefaultVoiceInfo() synth.VoiceDescriptor
	Synthesize(text string, opts synth.SynthesisOptions) (synth.SynthesisResult, error)
}

// Server implements the TextToSpeechService on top of a synthesis bridge.
type Server struct {
	napv1.UnimplementedTextToSpeechServiceServer

	cfg   config.Config
	log   *slog.Logger
	synth Synthesizer
}

// New returns a new Server instance.
func New(cfg config.Config, logger *slog.Logger, synthesizer Synthesizer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if synthesizer == nil {
		panic("server: synthesizer must not be nil")
	}
	return &Server{
		cfg: cfg,
		log: logger.With(
			"component", "server",
			"engine", cfg.Engine,
		),
		synth: synthesizer,
	}
}

// StreamSynthesis synthesizes the request text in full and streams the
// finished audio back in chunks.
func (s *Server) StreamSynthesis(req *napv1.StreamSynthesisRequest, stream napv1.TextToSpeechService_StreamSynthesisServer) error {
	if req == nil {
		return fmt.Errorf("server: request is nil")
	}

	text := req.GetText()
	logEntry := s.log.With(
		"session_id", req.GetSessionId(),
		"stream_id", req.GetStreamId(),
		"text_length", len(text),
	)

	if text == "" {
		logEntry.Warn("empty text in synthesis request")
		return s.sendError(stream, "text is required")
	}

	overrides, err := requestOptions(req.GetMetadata())
	if err != nil {
		logEntry.Warn("invalid request metadata", "error", err)
		return s.sendError(stream, err.Error())
	}
	opts := overrides.Resolve(s.cfg.SynthesisOptions().Resolve(host.Defaults))
	if opts.VoiceName == "" {
		opts.VoiceName = voiceForLanguage(s.synth.VoiceList(), req.GetMetadata())
	}
	if err := host.Validate(opts); err != nil {
		logEntry.Warn("invalid synthesis options", "error", err)
		return s.sendError(stream, err.Error())
	}

	voice, ok := s.synth.VoiceInfo(opts.VoiceName)
	if !ok {
		voice = s.synth.DefaultVoiceInfo()
	}
	logEntry = logEntry.With("voice_id", voice.ID, "ssml", opts.EnableSSML)
	logEntry.Info("synthesis request received")

	if err := s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_STARTED, nil); err != nil {
		logEntry.Error("failed to send started status", "error", err)
		return err
	}

	start := time.Now()
	result, err := s.synth.Synthesize(host.PrepareText(s.synth, text, opts), opts)
	if err != nil {
		logEntry.Error("synthesis failed", "error", err)
		return s.sendError(stream, fmt.Sprintf("synthesis failed: %v", err))
	}

	if err := s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING, nil); err != nil {
		logEntry.Error("failed to send playing status", "error", err)
		return err
	}

	data := result.AudioData
	format, isWAV := audio.ParseWAVHeader(data)
	chunkMeta := adapterinfo.SynthesisMetadata(s.cfg.Engine, voice.ID, result.AudioContentType)

	ctx := stream.Context()
	var sequence uint64
	for offset := 0; offset < len(data); offset += chunkSize {
		if err := ctx.Err(); err != nil {
			logEntry.Info("synthesis interrupted", "reason", err)
			return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_INTERRUPTED, map[string]string{
				"reason": err.Error(),
			})
		}

		end := min(offset+chunkSize, len(data))
		n := end - offset
		sequence++

		chunk := &napv1.AudioChunk{
			Data:     data[offset:end],
			Sequence: sequence,
			First:    sequence == 1,
			Last:     end == len(data),
			Metadata: chunkMeta,
		}
		if isWAV && format.ByteRate() > 0 {
			chunk.DurationMs = uint32(n * 1000 / format.ByteRate())
		}

		resp := &napv1.SynthesisResponse{
			Status: napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING,
			Chunk:  chunk,
		}
		if err := stream.Send(resp); err != nil {
			logEntry.Error("failed to send audio chunk", "error", err, "sequence", sequence)
			return err
		}

		logEntry.Debug("sent audio chunk",
			"sequence", sequence,
			"bytes", n,
			"duration_ms", chunk.DurationMs,
		)
	}

	duration := time.Since(start)
	logEntry.Info("synthesis completed",
		"total_bytes", len(data),
		"chunks", sequence,
		"markers", len(result.Markers),
		"duration_sec", duration.Seconds(),
	)

	metadata, err := finishedMetadata(result, sequence, len(text), duration)
	if err != nil {
		logEntry.Error("failed to encode timing metadata", "error", err)
		return s.sendError(stream, err.Error())
	}
	return s.sendStatus(stream, napv1.SynthesisStatus_SYNTHESIS_STATUS_FINISHED, metadata)
}

// finishedMetadata summarizes a synthesis result for the FINISHED status.
// Markers and timed tracks travel as JSON.
func finishedMetadata(result synth.SynthesisResult, chunks uint64, textLength int, elapsed time.Duration) (map[string]string, error) {
	markers, err := json.Marshal(result.Markers)
	if err != nil {
		return nil, fmt.Errorf("server: encode markers: %w", err)
	}
	tracks, err := json.Marshal(result.TimedMetadataTracks)
	if err != nil {
		return nil, fmt.Errorf("server: encode timed metadata tracks: %w", err)
	}
	return map[string]string{
		"content_type":          result.AudioContentType,
		"total_bytes":           strconv.Itoa(len(result.AudioData)),
		"total_chunks":          strconv.FormatUint(chunks, 10),
		"duration_sec":          fmt.Sprintf("%.2f", elapsed.Seconds()),
		"text_length":           strconv.Itoa(textLength),
		"marker_count":          strconv.Itoa(len(result.Markers)),
		"track_count":           strconv.Itoa(len(result.TimedMetadataTracks)),
		"markers":               string(markers),
		"timed_metadata_tracks": string(tracks),
	}, nil
}

func (s *Server) sendStatus(stream napv1.TextToSpeechService_StreamSynthesisServer, status napv1.SynthesisStatus, metadata map[string]string) error {
	resp := &napv1.SynthesisResponse{
		Status:   status,
		Metadata: metadata,
	}
	return stream.Send(resp)
}

func (s *Server) sendError(stream napv1.TextToSpeechService_StreamSynthesisServer, message string) error {
	resp := &napv1.SynthesisResponse{
		Status:       napv1.SynthesisStatus_SYNTHESIS_STATUS_ERROR,
		ErrorMessage: message,
	}
	if err := stream.Send(resp); err != nil {
		return err
	}
	return fmt.Errorf("synthesis error: %s", message)
}
