package stub

import (
	"strings"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/audio"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

type itemKind int

const (
	itemWord itemKind = iota
	itemBookmark
	itemPause
)

type item struct {
	kind  itemKind
	text  string
	pause engine.Ticks
}

// document is the flattened speech content of a text or SSML input.
type document struct {
	items []item
}

func (d *document) addText(text string) {
	for _, w := range strings.Fields(text) {
		d.items = append(d.items, item{kind: itemWord, text: w})
	}
}

func (d *document) addBookmark(name string) {
	d.items = append(d.items, item{kind: itemBookmark, text: name})
}

func (d *document) addPause(t engine.Ticks) {
	if t > 0 {
		d.items = append(d.items, item{kind: itemPause, pause: t})
	}
}

// render lays doc out on a timeline and produces a finished stream.
func render(doc document, opts engine.Options) *engine.BufferStream {
	rate := opts.SpeakingRate
	if rate <= 0 {
		rate = 1
	}
	wordTicks := engine.Ticks(float64(WordTicks) / rate)

	markers := make([]engine.MediaMarker, 0)
	var wordCues, sentenceCues []engine.Cue

	var (
		now           engine.Ticks
		sentenceStart engine.Ticks
		sentenceWords []string
	)
	closeSentence := func() {
		if len(sentenceWords) == 0 {
			return
		}
		sentenceCues = append(sentenceCues, engine.Cue{
			ID:        wide.FromString(strings.Join(sentenceWords, " ")),
			StartTime: sentenceStart,
			Duration:  now - sentenceStart,
		})
		sentenceWords = nil
	}

	for _, it := range doc.items {
		switch it.kind {
		case itemBookmark:
			markers = append(markers, marker(MarkerBookmark, it.text, now))
		case itemPause:
			closeSentence()
			now += it.pause
		case itemWord:
			if len(sentenceWords) == 0 {
				sentenceStart = now
				if opts.IncludeSentenceBoundaryMetadata {
					markers = append(markers, marker(MarkerSentence, "", now))
				}
			}
			if opts.IncludeWordBoundaryMetadata {
				markers = append(markers, marker(MarkerWord, it.text, now))
			}
			wordCues = append(wordCues, engine.Cue{
				ID:        wide.FromString(it.text),
				StartTime: now,
				Duration:  wordTicks,
			})
			sentenceWords = append(sentenceWords, it.text)
			now += wordTicks
			if isSentenceEnd(it.text) {
				closeSentence()
			}
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

	samples := int64(now) * int64(Format.SampleRate) / engine.TicksPerSecond
	pcm := make([]byte, samples*int64(Format.Channels*Format.BitsPerSample/8))
	return engine.NewBufferStream(ContentType, audio.WrapPCM(pcm, Format), markers, tracks)
}

func marker(kind, text string, at engine.Ticks) engine.MediaMarker {
	return engine.MediaMarker{
		MarkerType: wide.FromString(kind),
		Text:       wide.FromString(text),
		Time:       at,
	}
}
