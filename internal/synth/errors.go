package synth

import "errors"

var (
	// ErrSynthesisFailed wraps any failure reported by the engine operation.
	ErrSynthesisFailed = errors.New("synth: engine synthesis failed")
	// ErrShortRead is returned when the finished stream yields fewer bytes
	// than it reported.
	ErrShortRead = errors.New("synth: short read from speech stream")
)
