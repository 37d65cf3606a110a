// Package transport has the destinations that format encoders write
// to.
//
// An encoder writes into a Transport, which only buffers.  All I/O
// happens in Flush or FlushContext.  FlushContext gives up when its
// context is done, although the underlying I/O may still finish in
// the background.
package transport

import (
	"bytes"
	"context"
	"io"
	"log"
	"sync"
)

// Transport is what format encoders write to.
type Transport interface {
	io.Writer
	Flush() error
	FlushContext(ctx context.Context) error
}

// buffer collects writes until the next flush.
type buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// take returns and forgets everything buffered.
func (b *buffer) take() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		return nil
	}
	acc := make([]byte, b.buf.Len())
	copy(acc, b.buf.Bytes())
	b.buf.Reset()
	return acc
}

// Buffered returns the number of bytes waiting for a flush.
func (b *buffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// flushContext runs send in a goroutine and waits for it or for ctx.
func flushContext(ctx context.Context, send func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- send()
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func logf(debug bool, format string, args ...interface{}) {
	if debug {
		log.Printf(format, args...)
	}
}

// Stream is a Transport over an io.Writer.
type Stream struct {
	Debug bool

	buffer
	w      io.Writer
	sendMu sync.Mutex
}

// NewStream makes a Stream.  If w has a Flush() error method (like
// a bufio.Writer), Flush calls it after writing.
func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

func (s *Stream) send(bs []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if 0 < len(bs) {
		logf(s.Debug, "stream writing %d bytes", len(bs))
		if _, err := s.w.Write(bs); err != nil {
			return err
		}
	}
	if f, is := s.w.(interface{ Flush() error }); is {
		return f.Flush()
	}
	return nil
}

// Flush writes everything buffered to the underlying writer.
func (s *Stream) Flush() error {
	return s.send(s.take())
}

// FlushContext is Flush that gives up when ctx is done.
func (s *Stream) FlushContext(ctx context.Context) error {
	bs := s.take()
	return flushContext(ctx, func() error {
		return s.send(bs)
	})
}

// Discard is a Transport that throws everything away.
var Discard Transport = NewStream(io.Discard)
