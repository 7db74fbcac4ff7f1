package session_test

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// scriptedStream hands out one queued chunk per Read and records every Write.
type scriptedStream struct {
	reads chan []byte
	done  chan struct{}

	mu       sync.Mutex
	writes   [][]byte
	closed   bool
	writeErr error
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{
		reads: make(chan []byte, 64),
		done:  make(chan struct{}),
	}
}

func (s *scriptedStream) feed(chunks ...[]byte) {
	for _, c := range chunks {
		s.reads <- c
	}
}

func (s *scriptedStream) feedText(chunks ...string) {
	for _, c := range chunks {
		s.reads <- []byte(c)
	}
}

// hangUp makes the next Read return io.EOF once queued chunks are drained.
func (s *scriptedStream) hangUp() {
	close(s.reads)
}

func (s *scriptedStream) Read(p []byte) (int, error) {
	select {
	case data, ok := <-s.reads:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, data), nil
	case <-s.done:
		return 0, errors.New("use of closed stream")
	}
}

func (s *scriptedStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return 0, s.writeErr
	}
	s.writes = append(s.writes, bytes.Clone(p))
	return len(p), nil
}

func (s *scriptedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

func (s *scriptedStream) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.writes...)
}

func (s *scriptedStream) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
