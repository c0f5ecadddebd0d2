// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"errors"
	"io"
	"testing"

	"google.golang.org/grpc/metadata"
)

// step is one scripted answer of a scriptSource data poll.
type step struct {
	chunk   string
	pending bool
	err     error
}

// scriptSource is a producer that only satisfies Source. It answers data
// polls from steps and counts every poll it sees.
type scriptSource struct {
	steps      []step
	trailers   metadata.MD
	trailerErr error

	dataPolls    int
	trailerPolls int
	wakers       []Waker

	dataDone     bool
	trailersDone bool
	closed       bool
}

func (s *scriptSource) IsEndStream() bool {
	return s.dataDone && (s.trailersDone || (s.trailers == nil && s.trailerErr == nil))
}

func (s *scriptSource) PollData(w Waker) ([]byte, bool, error) {
	s.dataPolls++
	if len(s.steps) == 0 {
		s.dataDone = true
		return nil, true, io.EOF
	}

	st := s.steps[0]
	s.steps = s.steps[1:]
	switch {
	case st.pending:
		s.wakers = append(s.wakers, w)
		return nil, false, nil
	case st.err != nil:
		return nil, true, st.err
	}
	return []byte(st.chunk), true, nil
}

func (s *scriptSource) PollTrailers(w Waker) (metadata.MD, bool, error) {
	s.trailerPolls++
	s.trailersDone = true
	return s.trailers, true, s.trailerErr
}

func (s *scriptSource) Close() error {
	s.closed = true
	return nil
}

// countingWaker records how often it was woken.
type countingWaker struct {
	n int
}

func (w *countingWaker) Wake() { w.n++ }

func TestFrom_grantsBody(t *testing.T) {
	src := &scriptSource{steps: []step{{chunk: "ab"}}}

	b := From[[]byte](src)
	chunk, ready, err := b.PollData(noopWaker{})
	if !ready || err != nil {
		t.Fatalf("bad: %v %#v", ready, err)
	}
	if string(chunk) != "ab" {
		t.Fatalf("bad: %q", chunk)
	}
	if src.dataPolls != 1 {
		t.Fatalf("bad: %d", src.dataPolls)
	}
}

func TestFrom_bodyUnchanged(t *testing.T) {
	_, rx := NewChannel(nil)

	b := From[[]byte](rx)
	if b != Body[[]byte](rx) {
		t.Fatalf("bad: %#v", b)
	}
}

func TestFrom_pendingRegistersWaker(t *testing.T) {
	src := &scriptSource{steps: []step{{pending: true}, {chunk: "x"}}}
	b := From[[]byte](src)

	w := &countingWaker{}
	_, ready, err := b.PollData(w)
	if ready || err != nil {
		t.Fatalf("bad: %v %#v", ready, err)
	}
	if len(src.wakers) != 1 || src.wakers[0] != Waker(w) {
		t.Fatalf("bad: %#v", src.wakers)
	}
}

func TestFrom_close(t *testing.T) {
	src := &scriptSource{}
	b := MapFrom(From[[]byte](src))

	if err := b.Close(); err != nil {
		t.Fatalf("err should be nil, got %s", err)
	}
	if !src.closed {
		t.Fatal("source should be closed")
	}
}

func TestWakerFunc(t *testing.T) {
	called := 0
	var w Waker = WakerFunc(func() { called++ })
	w.Wake()
	if called != 1 {
		t.Fatalf("bad: %d", called)
	}
}

func TestFrom_errorsPassThrough(t *testing.T) {
	boom := errors.New("boom")
	b := From[[]byte](&scriptSource{steps: []step{{err: boom}}})

	_, ready, err := b.PollData(noopWaker{})
	if !ready || err != boom {
		t.Fatalf("bad: %v %#v", ready, err)
	}
}
