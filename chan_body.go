// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"errors"
	"io"
	"sync"

	"google.golang.org/grpc/metadata"
)

var (
	// ErrBodyClosed is returned to a Sender whose body has been closed by
	// its consumer.
	ErrBodyClosed = errors.New("streambody: body closed")

	// ErrSenderClosed is returned when sending after Close, Abort or
	// SendTrailers.
	ErrSenderClosed = errors.New("streambody: sender closed")
)

// NewChannel returns a body fed by the returned Sender. The Sender may be
// used from any goroutine; the body must be polled by a single one.
func NewChannel(config *Config) (*Sender, *ChanBody) {
	p := &pipe{
		capacity: config.capacity(),
		space:    make(chan struct{}, 1),
		gone:     make(chan struct{}),
	}
	return &Sender{p: p}, &ChanBody{p: p}
}

// pipe is the state shared by a Sender and its ChanBody.
type pipe struct {
	mu sync.Mutex

	queue    [][]byte
	capacity int

	// space is signalled whenever a chunk is taken off a full queue.
	space chan struct{}
	// gone is closed when the consumer closes the body.
	gone chan struct{}

	// waker is the single outstanding registration. It is cleared when
	// fired so each transition wakes it exactly once.
	waker Waker

	finished     bool
	err          error
	errSent      bool
	trailers     metadata.MD
	consumerDone bool
}

// wakeLocked takes the registered waker. The caller must call Wake on the
// result after releasing the lock.
func (p *pipe) wakeLocked() Waker {
	w := p.waker
	p.waker = nil
	if w == nil {
		return noopWaker{}
	}
	return w
}

// Sender is the producing half of a channel body.
type Sender struct {
	p *pipe
}

// SendData queues chunk, blocking while the queue is full. The chunk is
// not copied and must not be modified afterwards.
func (s *Sender) SendData(ctx context.Context, chunk []byte) error {
	p := s.p
	for {
		p.mu.Lock()
		switch {
		case p.consumerDone:
			p.mu.Unlock()
			return ErrBodyClosed
		case p.finished:
			p.mu.Unlock()
			return ErrSenderClosed
		case len(p.queue) < p.capacity:
			p.queue = append(p.queue, chunk)
			w := p.wakeLocked()
			p.mu.Unlock()
			w.Wake()
			return nil
		}
		p.mu.Unlock()

		select {
		case <-p.space:
		case <-p.gone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SendTrailers finishes the body with the given trailers.
func (s *Sender) SendTrailers(md metadata.MD) error {
	return s.finish(nil, md)
}

// Abort finishes the body with err, which the consumer sees after the
// chunks already queued. A nil err is the same as Close.
func (s *Sender) Abort(err error) error {
	return s.finish(err, nil)
}

// Close finishes the body without trailers. Calling it more than once, or
// after SendTrailers or Abort, is a no-op.
func (s *Sender) Close() error {
	s.finish(nil, nil)
	return nil
}

func (s *Sender) finish(err error, md metadata.MD) error {
	p := s.p
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return ErrSenderClosed
	}
	p.finished = true
	p.err = err
	p.trailers = md
	w := p.wakeLocked()
	p.mu.Unlock()

	w.Wake()
	return nil
}

// ChanBody is the consuming half of a channel body. It implements
// Body[[]byte] and is usually boxed with MapFrom.
type ChanBody struct {
	p *pipe
}

func (b *ChanBody) body() {}

// IsEndStream implements Body.
func (b *ChanBody) IsEndStream() bool {
	p := b.p
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.finished &&
		len(p.queue) == 0 &&
		p.trailers == nil &&
		(p.err == nil || p.errSent)
}

// PollData implements Body.
func (b *ChanBody) PollData(w Waker) ([]byte, bool, error) {
	p := b.p
	p.mu.Lock()

	if len(p.queue) > 0 {
		chunk := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		select {
		case p.space <- struct{}{}:
		default:
		}
		return chunk, true, nil
	}

	if err := p.takeErrLocked(); err != nil {
		p.mu.Unlock()
		return nil, true, err
	}

	if p.finished {
		p.mu.Unlock()
		return nil, true, io.EOF
	}

	p.waker = w
	p.mu.Unlock()
	return nil, false, nil
}

// PollTrailers implements Body. The trailers are handed out once.
func (b *ChanBody) PollTrailers(w Waker) (metadata.MD, bool, error) {
	p := b.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.takeErrLocked(); err != nil {
		return nil, true, err
	}

	if p.finished {
		md := p.trailers
		p.trailers = nil
		return md, true, nil
	}

	p.waker = w
	return nil, false, nil
}

// takeErrLocked returns the abort error the first time it is called.
func (p *pipe) takeErrLocked() error {
	if p.errSent {
		return nil
	}
	p.errSent = p.err != nil
	return p.err
}

// Close releases the body. Queued chunks are dropped and blocked senders
// return ErrBodyClosed.
func (b *ChanBody) Close() error {
	p := b.p
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.consumerDone {
		return nil
	}
	p.consumerDone = true
	p.queue = nil
	p.waker = nil
	close(p.gone)
	return nil
}

// Empty returns a body that has already ended.
func Empty() *BoxBody {
	return New(&fullBody{})
}

// Full returns a body holding a single chunk and no trailers. The slice is
// not copied.
func Full(data []byte) *BoxBody {
	return New(&fullBody{data: data})
}

type fullBody struct {
	data []byte
}

func (f *fullBody) body() {}

func (f *fullBody) IsEndStream() bool {
	return len(f.data) == 0
}

func (f *fullBody) PollData(Waker) (*Buf, bool, error) {
	if len(f.data) == 0 {
		return nil, true, io.EOF
	}

	b := NewBuf(f.data)
	f.data = nil
	return b, true, nil
}

func (f *fullBody) PollTrailers(Waker) (metadata.MD, bool, error) {
	return nil, true, nil
}
