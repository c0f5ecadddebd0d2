// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"bytes"
	"io"
	"testing"
)

func TestBuf_partialConsumption(t *testing.T) {
	b := NewBuf([]byte("abcdef"))

	if b.Len() != 6 {
		t.Fatalf("bad: %d", b.Len())
	}

	b.Advance(2)
	if b.String() != "cdef" {
		t.Fatalf("bad: %q", b.String())
	}

	c, err := b.ReadByte()
	if err != nil {
		t.Fatalf("err should be nil, got %s", err)
	}
	if c != 'c' {
		t.Fatalf("bad: %q", c)
	}

	p := make([]byte, 2)
	n, err := b.Read(p)
	if err != nil {
		t.Fatalf("err should be nil, got %s", err)
	}
	if n != 2 || string(p) != "de" {
		t.Fatalf("bad: %d %q", n, p)
	}

	var out bytes.Buffer
	if _, err := b.WriteTo(&out); err != nil {
		t.Fatalf("err should be nil, got %s", err)
	}
	if out.String() != "f" {
		t.Fatalf("bad: %q", out.String())
	}

	if b.Len() != 0 {
		t.Fatalf("bad: %d", b.Len())
	}
	if _, err := b.Read(p); err != io.EOF {
		t.Fatalf("bad: %#v", err)
	}
	if _, err := b.ReadByte(); err != io.EOF {
		t.Fatalf("bad: %#v", err)
	}
}

func TestBuf_advancePastEnd(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("should panic")
		}
	}()

	NewBuf([]byte("ab")).Advance(3)
}

func TestBuf_sharesBytes(t *testing.T) {
	raw := []byte("hello")
	b := NewBuf(raw)

	if &b.Bytes()[0] != &raw[0] {
		t.Fatal("buffer should alias the slice it was built from")
	}
}

func TestToBuf(t *testing.T) {
	type named []byte

	raw := named("xyz")
	b := toBuf(raw)
	if &b.Bytes()[0] != &raw[0] {
		t.Fatal("byte slice chunks should not be copied")
	}

	s := toBuf("xyz")
	if s.String() != "xyz" {
		t.Fatalf("bad: %q", s.String())
	}
}
