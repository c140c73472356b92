package engine

// asyncOperation runs a synthesis function on its own goroutine.
type asyncOperation struct {
	done   chan struct{}
	stream Stream
	err    error
}

// Go starts fn asynchronously and returns an Operation that completes when
// fn returns.
func Go(fn func() (Stream, error)) Operation {
	op := &asyncOperation{done: make(chan struct{})}
	go func() {
		defer close(op.done)
		op.stream, op.err = fn()
	}()
	return op
}

// Failed returns an Operation that has already completed with err.
func Failed(err error) Operation {
	op := &asyncOperation{done: make(chan struct{}), err: err}
	close(op.done)
	return op
}

func (o *asyncOperation) Done() <-chan struct{} {
	return o.done
}

func (o *asyncOperation) Result() (Stream, error) {
	select {
	case <-o.done:
		return o.stream, o.err
	default:
		return nil, ErrOperationPending
	}
}
