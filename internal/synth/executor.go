package synth

import (
	"errors"
	"fmt"
	"io"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/engine"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/wide"
)

// run starts the engine operation and blocks until it finishes. This wait is
// the only suspension point of a Synthesize call.
func run(s engine.Synthesizer, text wide.String, opts SynthesisOptions, trace io.Writer) (engine.Stream, error) {
	var op engine.Operation
	if opts.EnableSSML {
		op = s.SynthesizeSsmlToStreamAsync(text)
	} else {
		op = s.SynthesizeTextToStreamAsync(text)
	}

	if opts.EnableTrace {
		fmt.Fprintln(trace, "Getting speech stream..")
	}

	<-op.Done()

	stream, err := op.Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	if stream == nil {
		return nil, fmt.Errorf("%w: %w", ErrSynthesisFailed, errors.New("engine returned no stream"))
	}

	if opts.EnableTrace {
		fmt.Fprintln(trace, "Succeeded getting speech stream.")
	}
	return stream, nil
}
