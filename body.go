// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"google.golang.org/grpc/metadata"
)

// Waker is handed to a poll that cannot complete yet. The producer keeps
// the most recent Waker it was given and calls Wake exactly once when the
// body may make progress again.
type Waker interface {
	Wake()
}

// WakerFunc adapts an ordinary function to the Waker interface.
type WakerFunc func()

func (f WakerFunc) Wake() { f() }

// noopWaker is used for polls whose caller does not want to be woken.
type noopWaker struct{}

func (noopWaker) Wake() {}

// Source is the structural contract a transport-level producer satisfies.
// Any type with these three methods can be turned into a Body with From.
type Source[D any] interface {
	// IsEndStream reports whether both data and trailers are exhausted.
	// It must be cheap and side-effect free, and once it returns true it
	// must keep returning true.
	IsEndStream() bool

	// PollData returns the next chunk. If ready is false the call
	// registered w and nothing was consumed. Otherwise err is nil for a
	// chunk, io.EOF once data is exhausted, or the producer error.
	PollData(w Waker) (chunk D, ready bool, err error)

	// PollTrailers is called once data is exhausted. A nil md with a nil
	// err means the body carries no trailers.
	PollTrailers(w Waker) (md metadata.MD, ready bool, err error)
}

// Body is the capability every chunked body exposes. It is sealed: the
// only implementations are the ones in this package, and external
// producers join through From.
type Body[D any] interface {
	Source[D]

	body()
}

// From grants the Body capability to src. If src already is a Body it is
// returned unchanged.
func From[D any](src Source[D]) Body[D] {
	if b, ok := src.(Body[D]); ok {
		return b
	}

	return &sourceBody[D]{src: src}
}

// sourceBody is the blanket adapter. It only forwards; the source is kept
// behind its own pointer so it is never moved once polled.
type sourceBody[D any] struct {
	src Source[D]
}

func (b *sourceBody[D]) body() {}

func (b *sourceBody[D]) IsEndStream() bool {
	return b.src.IsEndStream()
}

func (b *sourceBody[D]) PollData(w Waker) (D, bool, error) {
	return b.src.PollData(w)
}

func (b *sourceBody[D]) PollTrailers(w Waker) (metadata.MD, bool, error) {
	return b.src.PollTrailers(w)
}

// Close releases the source if it holds resources.
func (b *sourceBody[D]) Close() error {
	return closeBody(b.src)
}
