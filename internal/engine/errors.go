package engine

import "errors"

var (
	// ErrOperationPending is returned by Result before the operation completes.
	ErrOperationPending = errors.New("engine: operation still pending")
	// ErrUnsupported marks a configuration the engine cannot synthesize.
	ErrUnsupported = errors.New("engine: unsupported configuration")
	// ErrMalformedSSML marks SSML input the engine could not parse.
	ErrMalformedSSML = errors.New("engine: malformed SSML")
)
