package synth

import (
	"errors"
	"io"
	"testing"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

func TestTicksToSeconds(t *testing.T) {
	tests := []struct {
		ticks engine.Ticks
		want  float64
	}{
		{0, 0},
		{10_000_000, 1.0},
		{5_000_000, 0.5},
		{1, 1e-7},
		{36_000_000_000, 3600},
		{-10_000_000, 0},
	}
	for _, tt := range tests {
		if got := TicksToSeconds(tt.ticks); got != tt.want {
			t.Errorf("TicksToSeconds(%d) = %v, want %v", tt.ticks, got, tt.want)
		}
	}
}

func TestExtractCopiesEverythingInOrder(t *testing.T) {
	stream := &fakeStream{
		size:        4,
		data:        []byte{1, 2, 3, 4},
		contentType: "audio/wav",
		markers: []engine.MediaMarker{
			{MarkerType: wide.FromString("WordBoundary"), Text: wide.FromString("zwei"), Time: 20_000_000},
			{MarkerType: wide.FromString("WordBoundary"), Text: wide.FromString("eins"), Time: 10_000_000},
			{MarkerType: wide.FromString("Bookmark"), Text: wide.FromString("ż"), Time: 0},
		},
		tracks: []engine.TimedMetadataTrack{
			{ID: wide.FromString("SpeechSentence"), Cues: []engine.Cue{
				{ID: wide.FromString("s1"), StartTime: 0, Duration: 15_000_000},
			}},
			{ID: wide.FromString("SpeechWord"), Cues: []engine.Cue{
				{ID: wide.FromString("w2"), StartTime: 20_000_000, Duration: 2_500_000},
				{ID: wide.FromString("w1"), StartTime: 10_000_000, Duration: 5_000_000},
			}},
		},
	}

	res, err := extract(stream)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if res.AudioContentType != "audio/wav" {
		t.Errorf("content type = %q", res.AudioContentType)
	}
	if string(res.AudioData) != "\x01\x02\x03\x04" {
		t.Errorf("audio = %v", res.AudioData)
	}

	wantMarkers := []Marker{
		{Type: "WordBoundary", Name: "zwei", Time: 2},
		{Type: "WordBoundary", Name: "eins", Time: 1},
		{Type: "Bookmark", Name: "ż", Time: 0},
	}
	if len(res.Markers) != len(wantMarkers) {
		t.Fatalf("got %d markers, want %d", len(res.Markers), len(wantMarkers))
	}
	for i, m := range res.Markers {
		if m != wantMarkers[i] {
			t.Errorf("marker[%d] = %+v, want %+v", i, m, wantMarkers[i])
		}
	}

	if len(res.TimedMetadataTracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(res.TimedMetadataTracks))
	}
	if res.TimedMetadataTracks[0].ID != "SpeechSentence" || res.TimedMetadataTracks[1].ID != "SpeechWord" {
		t.Errorf("track order = %q, %q", res.TimedMetadataTracks[0].ID, res.TimedMetadataTracks[1].ID)
	}
	words := res.TimedMetadataTracks[1].Cues
	if words[0] != (Cue{ID: "w2", StartTime: 2, Duration: 0.25}) || words[1] != (Cue{ID: "w1", StartTime: 1, Duration: 0.5}) {
		t.Errorf("word cues = %+v", words)
	}
}

func TestExtractEmptyMetadataIsNotNil(t *testing.T) {
	stream := &fakeStream{size: 2, data: []byte{0, 0}, contentType: "audio/wav",
		tracks: []engine.TimedMetadataTrack{{ID: wide.FromString("empty")}},
	}
	res, err := extract(stream)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Markers == nil || len(res.Markers) != 0 {
		t.Errorf("Markers = %#v, want empty non-nil", res.Markers)
	}
	if res.TimedMetadataTracks[0].Cues == nil {
		t.Error("Cues = nil, want empty non-nil")
	}

	res, err = extract(&fakeStream{contentType: "audio/wav"})
	if err != nil {
		t.Fatalf("extract empty stream: %v", err)
	}
	if res.AudioData == nil || res.Markers == nil || res.TimedMetadataTracks == nil {
		t.Errorf("nil sequence in %+v", res)
	}
}

func TestExtractShortRead(t *testing.T) {
	stream := &fakeStream{size: 10, data: []byte{1, 2, 3}, contentType: "audio/wav"}
	_, err := extract(stream)
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("err = %v, want ErrShortRead", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want wrapped io.ErrUnexpectedEOF", err)
	}
}

func TestExtractReadFailure(t *testing.T) {
	boom := errors.New("device lost")
	stream := &fakeStream{size: 10, readErr: boom}
	_, err := extract(stream)
	if !errors.Is(err, ErrShortRead) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrShortRead wrapping %v", err, boom)
	}
}
