package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Confirmer gates the run after setup instructions have been printed.
type Confirmer interface {
	Confirm(ctx context.Context) error
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context) error

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context) error { return f(ctx) }

// PromptConfirmer waits for one line of input, typically the operator
// pressing ENTER on stdin. EOF counts as confirmation. Input is read one byte
// at a time so nothing past the first newline is consumed.
type PromptConfirmer struct {
	In io.Reader
}

// Confirm blocks until a line is read or ctx is done. A read from In cannot
// be interrupted, so when ctx ends first the reading goroutine stays blocked
// until In returns.
func (p PromptConfirmer) Confirm(ctx context.Context) error {
	done := make(chan error, 1)

	go func() {
		done <- skipLine(p.In)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// skipLine reads up to and including the next newline.
func skipLine(r io.Reader) error {
	var b [1]byte

	for {
		n, err := r.Read(b[:])
		if n == 1 && b[0] == '\n' {
			return nil
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}
	}
}

// AutoConfirmer never waits. Notify, if set, is called instead.
type AutoConfirmer struct {
	Notify func()
}

// Confirm returns immediately.
func (a AutoConfirmer) Confirm(_ context.Context) error {
	if a.Notify != nil {
		a.Notify()
	}

	return nil
}
