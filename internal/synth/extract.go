package synth

import (
	"fmt"
	"io"
	"math"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
)

// TicksToSeconds converts engine ticks to seconds. Negative tick counts are
// reported as zero.
func TicksToSeconds(t engine.Ticks) float64 {
	if t <= 0 {
		return 0
	}
	return float64(t) / engine.TicksPerSecond
}

// extract copies audio and timing metadata out of a finished stream. It does
// not close the stream.
func extract(stream engine.Stream) (SynthesisResult, error) {
	size := stream.Size()
	if size > math.MaxInt {
		return SynthesisResult{}, fmt.Errorf("%w: stream size %d exceeds addressable memory", ErrShortRead, size)
	}

	audio := make([]byte, int(size))
	if size > 0 {
		n, err := io.ReadFull(stream.InputStreamAt(0), audio)
		if err != nil {
			return SynthesisResult{}, fmt.Errorf("%w: read %d of %d bytes: %w", ErrShortRead, n, size, err)
		}
	}

	engineMarkers := stream.Markers()
	markers := make([]Marker, 0, len(engineMarkers))
	for _, m := range engineMarkers {
		markers = append(markers, Marker{
			Type: m.MarkerType.String(),
			Name: m.Text.String(),
			Time: TicksToSeconds(m.Time),
		})
	}

	engineTracks := stream.TimedMetadataTracks()
	tracks := make([]TimedTrack, 0, len(engineTracks))
	for _, t := range engineTracks {
		cues := make([]Cue, 0, len(t.Cues))
		for _, c := range t.Cues {
			cues = append(cues, Cue{
				ID:        c.ID.String(),
				StartTime: TicksToSeconds(c.StartTime),
				Duration:  TicksToSeconds(c.Duration),
			})
		}
		tracks = append(tracks, TimedTrack{
			ID:   t.ID.String(),
			Cues: cues,
		})
	}

	return SynthesisResult{
		AudioContentType:    stream.ContentType().String(),
		AudioData:           audio,
		Markers:             markers,
		TimedMetadataTracks: tracks,
	}, nil
}
