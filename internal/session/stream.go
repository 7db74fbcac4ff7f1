package session

import (
	"context"
	"errors"
	"io"
	"time"
)

const readSize = 1024

// errWaitExpired is returned by pump.next when the deadline passes first.
var errWaitExpired = errors.New("wait expired")

type chunk struct {
	data []byte
	err  error
}

// pump performs the blocking reads on the stream in its own goroutine so the
// driving goroutine can wait with a deadline. It never touches Session state.
type pump struct {
	r      io.Reader
	chunks chan chunk
	done   chan struct{}
	err    error // sticky once the stream fails; owned by the driver
}

func newPump(r io.Reader) *pump {
	p := &pump{
		r:      r,
		chunks: make(chan chunk),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *pump) run() {
	for {
		buf := make([]byte, readSize)
		n, err := p.r.Read(buf)
		if n > 0 {
			select {
			case p.chunks <- chunk{data: buf[:n]}:
			case <-p.done:
				return
			}
		}
		if err != nil {
			select {
			case p.chunks <- chunk{err: err}:
			case <-p.done:
			}
			return
		}
	}
}

// next returns the next chunk of bytes. A zero deadline waits indefinitely.
// It returns errWaitExpired when the deadline passes, ctx.Err() when the
// context ends, and the stream's error once the stream has failed.
func (p *pump) next(ctx context.Context, deadline time.Time) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}

	var expired <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case c := <-p.chunks:
		if c.err != nil {
			p.err = c.err
			return nil, c.err
		}
		return c.data, nil
	case <-expired:
		return nil, errWaitExpired
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// stop releases the goroutine if it is blocked handing over a chunk. A
// goroutine blocked inside Read only returns once the stream is closed.
func (p *pump) stop() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}
