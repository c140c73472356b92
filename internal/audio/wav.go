// Package audio holds the small amount of container handling the adapter
// needs: wrapping PCM in a WAV header and reading a header back.
package audio

import (
	"bytes"
	"encoding/binary"
)

// WAVHeaderSize is the size of a canonical PCM WAV header.
const WAVHeaderSize = 44

// Format describes interleaved PCM audio.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// ByteRate is the number of bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.Channels * f.BitsPerSample / 8
}

// WrapPCM prefixes pcm with a canonical 44-byte WAV header.
func WrapPCM(pcm []byte, f Format) []byte {
	out := make([]byte, WAVHeaderSize+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(f.ByteRate()))
	binary.LittleEndian.PutUint16(out[32:34], uint16(f.Channels*f.BitsPerSample/8))
	binary.LittleEndian.PutUint16(out[34:36], uint16(f.BitsPerSample))

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)

	return out
}

// ParseWAVHeader reads the format of a canonical WAV buffer. ok is false when
// data does not start with a PCM RIFF/WAVE header.
func ParseWAVHeader(data []byte) (f Format, ok bool) {
	if len(data) < WAVHeaderSize {
		return Format{}, false
	}
	if !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) || !bytes.Equal(data[12:16], []byte("fmt ")) {
		return Format{}, false
	}
	f = Format{
		Channels:      int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(data[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(data[34:36])),
	}
	if f.ByteRate() == 0 {
		return Format{}, false
	}
	return f, true
}
