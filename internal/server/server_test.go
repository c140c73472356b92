package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	napv1 "github.com/nupi-ai/nupi/api/nap/v1"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/config"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine/stub"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/host"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/synth"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSynthesizer wraps a Synthesizer and captures the last call.
type recordingSynthesizer struct {
	Synthesizer
	err error

	called bool
	text   string
	opts   synth.SynthesisOptions
}

func (r *recordingSynthesizer) Synthesize(text string, opts synth.SynthesisOptions) (synth.SynthesisResult, error) {
	r.called = true
	r.text = text
	r.opts = opts
	if r.err != nil {
		return synth.SynthesisResult{}, r.err
	}
	return r.Synthesizer.Synthesize(text, opts)
}

func newStubSynthesizer() *recordingSynthesizer {
	bridge := synth.NewBridge(stub.New(quietLogger()), quietLogger(), nil)
	bridge.SetTraceOutput(io.Discard)
	return &recordingSynthesizer{Synthesizer: bridge}
}

func testConfig() config.Config {
	return config.Config{
		ListenAddr: "bufconn",
		LogLevel:   "error",
		Engine:     config.EngineStub,
	}
}

// setup creates a bufconn gRPC server+client pair and returns the TTS client and a cleanup func.
func setup(t *testing.T, synthesizer Synthesizer) (napv1.TextToSpeechServiceClient, func()) {
	return setupWithConfig(t, testConfig(), synthesizer)
}

// setupWithConfig creates a bufconn gRPC server+client pair with a custom config.
func setupWithConfig(t *testing.T, cfg config.Config, synthesizer Synthesizer) (napv1.TextToSpeechServiceClient, func()) {
	t.Helper()
	buf := bufconn.Listen(1024 * 1024)

	srv := grpc.NewServer()
	svc := New(cfg, quietLogger(), synthesizer)
	napv1.RegisterTextToSpeechServiceServer(srv, svc)

	go func() {
		if err := srv.Serve(buf); err != nil {
			t.Logf("server exited: %v", err)
		}
	}()

	conn, err := grpc.NewClient(
		"passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return buf.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	client := napv1.NewTextToSpeechServiceClient(conn)
	cleanup := func() {
		conn.Close()
		srv.Stop()
	}
	return client, cleanup
}

// collectResponses drains all responses from the stream.
func collectResponses(t *testing.T, stream napv1.TextToSpeechService_StreamSynthesisClient) []*napv1.SynthesisResponse {
	t.Helper()
	var responses []*napv1.SynthesisResponse
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		responses = append(responses, resp)
	}
	return responses
}

// collectResponsesAllowError drains responses, returning whatever was collected
// before an error (the server may close with an error after sending STATUS_ERROR).
func collectResponsesAllowError(stream napv1.TextToSpeechService_StreamSynthesisClient) []*napv1.SynthesisResponse {
	var responses []*napv1.SynthesisResponse
	for {
		resp, err := stream.Recv()
		if err != nil {
			break
		}
		responses = append(responses, resp)
	}
	return responses
}

func synthesize(t *testing.T, client napv1.TextToSpeechServiceClient, req *napv1.StreamSynthesisRequest) []*napv1.SynthesisResponse {
	t.Helper()
	stream, err := client.StreamSynthesis(context.Background(), req)
	if err != nil {
		t.Fatalf("StreamSynthesis: %v", err)
	}
	return collectResponses(t, stream)
}

func findError(responses []*napv1.SynthesisResponse) *napv1.SynthesisResponse {
	for _, r := range responses {
		if r.Status == napv1.SynthesisStatus_SYNTHESIS_STATUS_ERROR {
			return r
		}
	}
	return nil
}

func TestStreamSynthesisSuccess(t *testing.T) {
	rec := newStubSynthesizer()
	client, cleanup := setup(t, rec)
	defer cleanup()

	responses := synthesize(t, client, &napv1.StreamSynthesisRequest{Text: "hello world"})

	if len(responses) < 4 {
		t.Fatalf("got %d responses, want at least 4", len(responses))
	}
	if responses[0].Status != napv1.SynthesisStatus_SYNTHESIS_STATUS_STARTED {
		t.Errorf("response[0].Status = %v, want STARTED", responses[0].Status)
	}
	if responses[1].Status != napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING || responses[1].Chunk != nil {
		t.Errorf("response[1] should be a status-only PLAYING")
	}

	var totalAudioBytes int
	var chunks []*napv1.AudioChunk
	for _, resp := range responses {
		if resp.Chunk != nil {
			totalAudioBytes += len(resp.Chunk.Data)
			chunks = append(chunks, resp.Chunk)
			// 4096 bytes of 16 kHz mono PCM16 = 128ms
			if len(resp.Chunk.Data) == chunkSize && resp.Chunk.DurationMs != 128 {
				t.Errorf("chunk seq %d: DurationMs = %d, want 128", resp.Chunk.Sequence, resp.Chunk.DurationMs)
			}
		}
	}
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	if !chunks[0].First || chunks[0].Last {
		t.Error("first chunk flags wrong")
	}
	if !chunks[len(chunks)-1].Last {
		t.Error("last chunk not flagged Last")
	}
	for i, c := range chunks {
		if c.Sequence != uint64(i+1) {
			t.Errorf("chunk %d sequence = %d", i, c.Sequence)
		}
	}

	last := responses[len(responses)-1]
	if last.Status != napv1.SynthesisStatus_SYNTHESIS_STATUS_FINISHED {
		t.Fatalf("last response Status = %v, want FINISHED", last.Status)
	}
	if got := last.Metadata["total_bytes"]; got != strconv.Itoa(totalAudioBytes) {
		t.Errorf("total_bytes = %s, want %d", got, totalAudioBytes)
	}
	if last.Metadata["content_type"] != stub.ContentType {
		t.Errorf("content_type = %q", last.Metadata["content_type"])
	}
	if rec.text != "hello world" {
		t.Errorf("bridge received %q, want plain text", rec.text)
	}
}

func TestStreamSynthesisTimingMetadata(t *testing.T) {
	client, cleanup := setup(t, newStubSynthesizer())
	defer cleanup()

	responses := synthesize(t, client, &napv1.StreamSynthesisRequest{Text: "One two. Three."})
	last := responses[len(responses)-1]

	var markers []synth.Marker
	if err := json.Unmarshal([]byte(last.Metadata["markers"]), &markers); err != nil {
		t.Fatalf("decode markers: %v", err)
	}
	if got := last.Metadata["marker_count"]; got != strconv.Itoa(len(markers)) {
		t.Errorf("marker_count = %s, want %d", got, len(markers))
	}
	words := 0
	for _, m := range markers {
		if m.Type == stub.MarkerWord {
			words++
		}
	}
	if words != 3 {
		t.Errorf("got %d word markers, want 3", words)
	}

	var tracks []synth.TimedTrack
	if err := json.Unmarshal([]byte(last.Metadata["timed_metadata_tracks"]), &tracks); err != nil {
		t.Fatalf("decode tracks: %v", err)
	}
	if last.Metadata["track_count"] != strconv.Itoa(len(tracks)) || len(tracks) == 0 {
		t.Errorf("track_count = %s, decoded %d", last.Metadata["track_count"], len(tracks))
	}
}

func TestStreamSynthesisEmptyText(t *testing.T) {
	rec := newStubSynthesizer()
	client, cleanup := setup(t, rec)
	defer cleanup()

	stream, err := client.StreamSynthesis(context.Background(), &napv1.StreamSynthesisRequest{Text: ""})
	if err != nil {
		t.Fatalf("StreamSynthesis: %v", err)
	}
	if findError(collectResponsesAllowError(stream)) == nil {
		t.Error("expected STATUS_ERROR for empty text")
	}
	if rec.called {
		t.Error("bridge called for empty text")
	}
}

func TestStreamSynthesisEngineError(t *testing.T) {
	rec := newStubSynthesizer()
	rec.err = errors.New("synth: speech synthesis failed: engine crashed")
	client, cleanup := setup(t, rec)
	defer cleanup()

	stream, err := client.StreamSynthesis(context.Background(), &napv1.StreamSynthesisRequest{Text: "fail"})
	if err != nil {
		t.Fatalf("StreamSynthesis: %v", err)
	}
	resp := findError(collectResponsesAllowError(stream))
	if resp == nil {
		t.Fatal("expected STATUS_ERROR for engine failure")
	}
	if resp.ErrorMessage == "" {
		t.Error("expected non-empty error message")
	}
}

func TestStreamSynthesisMalformedSSML(t *testing.T) {
	cfg := testConfig()
	cfg.EnableSSML = host.Bool(true)
	client, cleanup := setupWithConfig(t, cfg, newStubSynthesizer())
	defer cleanup()

	stream, err := client.StreamSynthesis(context.Background(), &napv1.StreamSynthesisRequest{Text: "<mark name='a'>"})
	if err != nil {
		t.Fatalf("StreamSynthesis: %v", err)
	}
	if findError(collectResponsesAllowError(stream)) == nil {
		t.Error("expected STATUS_ERROR for malformed SSML")
	}
}

func TestStreamSynthesisSSMLEnvelope(t *testing.T) {
	cfg := testConfig()
	cfg.EnableSSML = host.Bool(true)
	cfg.VoiceName = host.String("Microsoft Paulina")
	rec := newStubSynthesizer()
	client, cleanup := setupWithConfig(t, cfg, rec)
	defer cleanup()

	responses := synthesize(t, client, &napv1.StreamSynthesisRequest{Text: `Dzień dobry <mark name="m1"/>`})
	if last := responses[len(responses)-1]; last.Status != napv1.SynthesisStatus_SYNTHESIS_STATUS_FINISHED {
		t.Fatalf("last status = %v, want FINISHED", last.Status)
	}
	want := host.PrepareText(rec.Synthesizer, `Dzień dobry <mark name="m1"/>`, rec.opts)
	if rec.text != want {
		t.Errorf("bridge text = %q, want %q", rec.text, want)
	}
}

func TestStreamSynthesisStatusSequence(t *testing.T) {
	client, cleanup := setup(t, newStubSynthesizer())
	defer cleanup()

	responses := synthesize(t, client, &napv1.StreamSynthesisRequest{Text: "sequence test"})

	if len(responses) < 3 {
		t.Fatalf("got %d responses, want at least 3 (STARTED, PLAYING, FINISHED)", len(responses))
	}
	if responses[0].Status != napv1.SynthesisStatus_SYNTHESIS_STATUS_STARTED {
		t.Errorf("first status = %v, want STARTED", responses[0].Status)
	}
	last := responses[len(responses)-1]
	if last.Status != napv1.SynthesisStatus_SYNTHESIS_STATUS_FINISHED {
		t.Errorf("last status = %v, want FINISHED", last.Status)
	}
	for i := 1; i < len(responses)-1; i++ {
		if responses[i].Status != napv1.SynthesisStatus_SYNTHESIS_STATUS_PLAYING {
			t.Errorf("response[%d].Status = %v, want PLAYING", i, responses[i].Status)
		}
	}
}

func TestStreamSynthesisChunkMetadata(t *testing.T) {
	cfg := testConfig()
	cfg.VoiceName = host.String("Microsoft Zira")
	client, cleanup := setupWithConfig(t, cfg, newStubSynthesizer())
	defer cleanup()

	responses := synthesize(t, client, &napv1.StreamSynthesisRequest{Text: "metadata test"})

	for _, r := range responses {
		if r.Chunk != nil {
			if r.Chunk.Metadata["engine"] != config.EngineStub {
				t.Errorf("chunk metadata engine = %q", r.Chunk.Metadata["engine"])
			}
			if got, want := r.Chunk.Metadata["voice_id"], stub.DefaultVoices[1].ID.String(); got != want {
				t.Errorf("chunk metadata voice_id = %q, want %q", got, want)
			}
			return
		}
	}
	t.Error("no audio chunks with metadata found")
}

func TestStreamSynthesisMetadataOverridesVoice(t *testing.T) {
	cfg := testConfig()
	cfg.VoiceName = host.String("Microsoft Zira")
	rec := newStubSynthesizer()
	client, cleanup := setupWithConfig(t, cfg, rec)
	defer cleanup()

	synthesize(t, client, &napv1.StreamSynthesisRequest{
		Text:     "override",
		Metadata: map[string]string{"voice_name": "Microsoft George", "speaking_rate": "2"},
	})
	if rec.opts.VoiceName != "Microsoft George" {
		t.Errorf("voice = %q, want request override", rec.opts.VoiceName)
	}
	if rec.opts.SpeakingRate != 2 {
		t.Errorf("speaking rate = %v, want 2", rec.opts.SpeakingRate)
	}
}

func TestStreamSynthesisLanguagePicksVoice(t *testing.T) {
	rec := newStubSynthesizer()
	client, cleanup := setup(t, rec)
	defer cleanup()

	synthesize(t, client, &napv1.StreamSynthesisRequest{
		Text:     "dzień dobry",
		Metadata: map[string]string{"nupi.lang.iso1": "pl"},
	})
	if want := stub.DefaultVoices[3].ID.String(); rec.opts.VoiceName != want {
		t.Errorf("voice = %q, want %q", rec.opts.VoiceName, want)
	}
}

func TestStreamSynthesisConfiguredVoiceBeatsLanguage(t *testing.T) {
	cfg := testConfig()
	cfg.VoiceName = host.String("Microsoft Zira")
	rec := newStubSynthesizer()
	client, cleanup := setupWithConfig(t, cfg, rec)
	defer cleanup()

	synthesize(t, client, &napv1.StreamSynthesisRequest{
		Text:     "hello",
		Metadata: map[string]string{"nupi.lang.iso1": "pl"},
	})
	if rec.opts.VoiceName != "Microsoft Zira" {
		t.Errorf("voice = %q, want configured voice", rec.opts.VoiceName)
	}
}

func TestStreamSynthesisRejectsInvalidOptions(t *testing.T) {
	rec := newStubSynthesizer()
	client, cleanup := setup(t, rec)
	defer cleanup()

	for _, meta := range []map[string]string{
		{"speaking_rate": "9"},
		{"audio_pitch": "abc"},
	} {
		stream, err := client.StreamSynthesis(context.Background(), &napv1.StreamSynthesisRequest{Text: "x", Metadata: meta})
		if err != nil {
			t.Fatalf("StreamSynthesis: %v", err)
		}
		if findError(collectResponsesAllowError(stream)) == nil {
			t.Errorf("metadata %v: expected STATUS_ERROR", meta)
		}
	}
	if rec.called {
		t.Error("bridge called with invalid options")
	}
}

func TestStreamSynthesisUnknownVoiceFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.VoiceName = host.String("nobody")
	client, cleanup := setupWithConfig(t, cfg, newStubSynthesizer())
	defer cleanup()

	responses := synthesize(t, client, &napv1.StreamSynthesisRequest{Text: "fallback"})
	if last := responses[len(responses)-1]; last.Status != napv1.SynthesisStatus_SYNTHESIS_STATUS_FINISHED {
		t.Fatalf("last status = %v, want FINISHED", last.Status)
	}
	for _, r := range responses {
		if r.Chunk != nil {
			if got, want := r.Chunk.Metadata["voice_id"], stub.DefaultVoices[0].ID.String(); got != want {
				t.Errorf("voice_id = %q, want default %q", got, want)
			}
			return
		}
	}
}

func TestNewPanicsWithoutSynthesizer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(testConfig(), nil, nil)
}
