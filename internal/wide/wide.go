// Package wide converts between UTF-8 byte strings and the UTF-16 code unit
// strings the speech engine speaks.
package wide

import (
	"encoding/binary"
	"slices"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// String is a UTF-16 string as exchanged with the speech engine. It carries
// no terminator; its length is the number of code units.
type String []uint16

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Converter factories. Tests replace them to observe or fail conversions.
var (
	newEncoder = func() transform.Transformer { return utf16LE.NewEncoder() }
	newDecoder = func() transform.Transformer { return utf16LE.NewDecoder() }
)

// ToWide converts UTF-8 bytes to a wide string. Invalid UTF-8 sequences are
// replaced with U+FFFD. If the converter reports a failure the result is
// empty.
func ToWide(utf8 []byte) String {
	if len(utf8) == 0 {
		return String{}
	}

	// One UTF-8 byte never yields more than one UTF-16 code unit.
	capacity := (len(utf8) + 1) * 2
	dst := make([]byte, capacity*2)

	n, _, err := newEncoder().Transform(dst, utf8, true)
	if err != nil || n < 0 {
		return String{}
	}

	out := make(String, n/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(dst[2*i:])
	}
	return out
}

// ToUTF8 converts a wide string to UTF-8 bytes. Unpaired surrogates are
// replaced with U+FFFD. If the converter reports a failure the result is
// empty.
func ToUTF8(w String) []byte {
	if len(w) == 0 {
		return []byte{}
	}

	src := make([]byte, len(w)*2)
	for i, u := range w {
		binary.LittleEndian.PutUint16(src[2*i:], u)
	}

	// A code unit expands to at most three UTF-8 bytes.
	capacity := (len(w) + 1) * 4
	dst := make([]byte, capacity)

	n, _, err := newDecoder().Transform(dst, src, true)
	if err != nil || n < 0 {
		return []byte{}
	}
	return dst[:n:n]
}

// FromString is ToWide for Go strings.
func FromString(s string) String {
	return ToWide([]byte(s))
}

// String returns the UTF-8 form of w.
func (w String) String() string {
	return string(ToUTF8(w))
}

// Equal reports whether a and b hold the same code units.
func Equal(a, b String) bool {
	return slices.Equal(a, b)
}
