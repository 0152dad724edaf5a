package todolist

import "context"

// Write is a remote write the caller did not wait for.
// Ignoring it is fine; observing it is for logging or for short-lived
// callers (the CLI) that must not exit before the request lands.
type Write struct {
	op   string
	id   string
	done chan struct{}
	err  error
}

func newWrite(op, id string) *Write {
	return &Write{op: op, id: id, done: make(chan struct{})}
}

// resolved returns a write that already finished with err.
func resolved(op, id string, err error) *Write {
	w := newWrite(op, id)
	w.finish(err)
	return w
}

func (w *Write) finish(err error) {
	w.err = err
	close(w.done)
}

// Op is "update" or "delete".
func (w *Write) Op() string { return w.op }

// ID is the document the write addresses.
func (w *Write) ID() string { return w.id }

// Done is closed once the collection answered.
func (w *Write) Done() <-chan struct{} { return w.done }

// Err is the outcome. Only meaningful after Done is closed.
func (w *Write) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

// Wait blocks until the write finished or ctx ends.
func (w *Write) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
