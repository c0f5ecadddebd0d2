// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"io"

	"google.golang.org/grpc/metadata"
)

// mapBody converts the chunks and errors of one inner body into *Buf and
// gRPC status errors. It performs one conversion per ready poll.
type mapBody[D Chunk] struct {
	inner Body[D]

	// done is set once end of data or an error has been returned, after
	// which inner is not polled for data again.
	done bool
	// failed is set when an error ended the stream.
	failed bool
}

func newMapBody[D Chunk](inner Body[D]) *mapBody[D] {
	return &mapBody[D]{inner: inner}
}

func (m *mapBody[D]) body() {}

func (m *mapBody[D]) IsEndStream() bool {
	return m.inner.IsEndStream()
}

func (m *mapBody[D]) PollData(w Waker) (*Buf, bool, error) {
	if m.done {
		return nil, true, io.EOF
	}

	chunk, ready, err := m.inner.PollData(w)
	switch {
	case !ready:
		return nil, false, nil
	case err == io.EOF:
		m.done = true
		return nil, true, io.EOF
	case err != nil:
		m.done, m.failed = true, true
		return nil, true, MapError(err).Err()
	}

	return toBuf(chunk), true, nil
}

func (m *mapBody[D]) PollTrailers(w Waker) (metadata.MD, bool, error) {
	if m.failed {
		return nil, true, nil
	}

	md, ready, err := m.inner.PollTrailers(w)
	if !ready {
		return nil, false, nil
	}
	if err != nil {
		m.failed = true
		return nil, true, FromError(err).Err()
	}

	return md, true, nil
}

func (m *mapBody[D]) Close() error {
	return closeBody(m.inner)
}
