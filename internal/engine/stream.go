package engine

import (
	"bytes"
	"io"
	"sync/atomic"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

// BufferStream is an in-memory Stream for engines that produce the whole
// audio buffer up front.
type BufferStream struct {
	contentType wide.String
	data        []byte
	markers     []MediaMarker
	tracks      []TimedMetadataTrack
	closed      atomic.Bool
}

// NewBufferStream returns a Stream over data. The slices are retained, not
// copied.
func NewBufferStream(contentType string, data []byte, markers []MediaMarker, tracks []TimedMetadataTrack) *BufferStream {
	return &BufferStream{
		contentType: wide.FromString(contentType),
		data:        data,
		markers:     markers,
		tracks:      tracks,
	}
}

func (s *BufferStream) Size() uint64 { return uint64(len(s.data)) }

func (s *BufferStream) ContentType() wide.String { return s.contentType }

func (s *BufferStream) InputStreamAt(pos uint64) io.Reader {
	if pos >= uint64(len(s.data)) {
		return bytes.NewReader(nil)
	}
	return bytes.NewReader(s.data[pos:])
}

func (s *BufferStream) Markers() []MediaMarker { return s.markers }

func (s *BufferStream) TimedMetadataTracks() []TimedMetadataTrack { return s.tracks }

// Close releases the stream. It is safe to call more than once.
func (s *BufferStream) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.data = nil
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *BufferStream) Closed() bool {
	return s.closed.Load()
}
