// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"fmt"
	"io"
)

// Buf is the canonical chunk type. It is a read cursor over a byte slice
// it does not copy: Advance and Read only move the cursor.
type Buf struct {
	b   []byte
	off int
}

// NewBuf returns a cursor over b. The slice is shared, not copied.
func NewBuf(b []byte) *Buf {
	return &Buf{b: b}
}

// Chunk is the set of producer chunk types MapFrom can convert into *Buf.
// Byte slices are viewed in place; strings are copied once.
type Chunk interface {
	~[]byte | ~string
}

func toBuf[D Chunk](d D) *Buf {
	return NewBuf([]byte(d))
}

// Len returns the number of unread bytes.
func (b *Buf) Len() int {
	return len(b.b) - b.off
}

// Bytes returns the unread bytes. The slice aliases the buffer.
func (b *Buf) Bytes() []byte {
	return b.b[b.off:]
}

// Advance consumes n bytes. It panics if n is larger than Len.
func (b *Buf) Advance(n int) {
	if n < 0 || n > b.Len() {
		panic(fmt.Sprintf("streambody: advance %d past end of buffer (len %d)", n, b.Len()))
	}
	b.off += n
}

// Read implements io.Reader.
func (b *Buf) Read(p []byte) (int, error) {
	if b.Len() == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}

	n := copy(p, b.Bytes())
	b.off += n
	return n, nil
}

// ReadByte implements io.ByteReader.
func (b *Buf) ReadByte() (byte, error) {
	if b.Len() == 0 {
		return 0, io.EOF
	}

	c := b.b[b.off]
	b.off++
	return c, nil
}

// WriteTo implements io.WriterTo, consuming everything written.
func (b *Buf) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes())
	b.off += n
	if err == nil && b.Len() > 0 {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

func (b *Buf) String() string {
	return string(b.Bytes())
}
