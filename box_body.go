// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"io"

	"google.golang.org/grpc/metadata"
)

// BoxBody is the type-erased body handed to the RPC layer. Its chunks are
// always *Buf and every error it returns, other than io.EOF, is a gRPC
// status error. The concrete producer cannot be recovered from it.
//
// A BoxBody must have a single owner and must not be copied. Polls are
// forwarded to the inner body with one interface call each.
type BoxBody struct {
	noCopy noCopy

	inner Body[*Buf]

	// wake parks the blocking Data and Trailers calls. It is created on
	// first use and reused, so at most one registration is outstanding.
	wake chanWaker
}

// New boxes a body that already yields *Buf chunks and status errors.
func New(inner Body[*Buf]) *BoxBody {
	return &BoxBody{inner: inner}
}

// MapFrom boxes any body, converting its chunks into *Buf and its errors
// into status errors on the way out.
func MapFrom[D Chunk](inner Body[D]) *BoxBody {
	return &BoxBody{inner: newMapBody(inner)}
}

func (b *BoxBody) body() {}

// IsEndStream implements Body.
func (b *BoxBody) IsEndStream() bool {
	return b.inner.IsEndStream()
}

// PollData implements Body.
func (b *BoxBody) PollData(w Waker) (*Buf, bool, error) {
	return b.inner.PollData(w)
}

// PollTrailers implements Body.
func (b *BoxBody) PollTrailers(w Waker) (metadata.MD, bool, error) {
	return b.inner.PollTrailers(w)
}

// Data blocks until the next chunk is available. It returns io.EOF once
// data is exhausted. If ctx is done first, the returned error is the
// status for ctx.Err() and the body is left as it was.
func (b *BoxBody) Data(ctx context.Context) (*Buf, error) {
	w := b.waker()
	for {
		chunk, ready, err := b.inner.PollData(w)
		if ready {
			return chunk, err
		}

		select {
		case <-w:
		case <-ctx.Done():
			return nil, FromError(ctx.Err()).Err()
		}
	}
}

// Trailers blocks until the trailers are available. It should only be
// called once Data has returned io.EOF.
func (b *BoxBody) Trailers(ctx context.Context) (metadata.MD, error) {
	w := b.waker()
	for {
		md, ready, err := b.inner.PollTrailers(w)
		if ready {
			return md, err
		}

		select {
		case <-w:
		case <-ctx.Done():
			return nil, FromError(ctx.Err()).Err()
		}
	}
}

// Close releases the inner producer. It is the explicit form of dropping
// the body and may be called at any point between polls, more than once.
func (b *BoxBody) Close() error {
	return closeBody(b.inner)
}

func (b *BoxBody) waker() chanWaker {
	if b.wake == nil {
		b.wake = make(chanWaker, 1)
	}
	return b.wake
}

// chanWaker coalesces wakes into a single pending token.
type chanWaker chan struct{}

func (c chanWaker) Wake() {
	select {
	case c <- struct{}{}:
	default:
	}
}

// closeBody closes v if it holds resources.
func closeBody(v interface{}) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// noCopy makes go vet's copylocks check flag copies of the value holding it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
