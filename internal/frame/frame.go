// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package frame is the wire format used to carry a body over a plain byte
// stream such as a yamux stream.
//
// Every frame is a 5 byte header, a type byte followed by a big-endian
// uint32 payload length, and then the payload. A body is any number of
// data frames terminated by exactly one trailers frame (an HPACK header
// block, possibly empty) or one status frame (a big-endian uint32 gRPC
// code followed by the message).
package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"golang.org/x/net/http2/hpack"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Type identifies the payload of a frame.
type Type uint8

const (
	TypeData Type = iota
	TypeTrailers
	TypeStatus
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "DATA"
	case TypeTrailers:
		return "TRAILERS"
	case TypeStatus:
		return "STATUS"
	default:
		return fmt.Sprintf("UNKNOWN_FRAME_TYPE_%d", uint8(t))
	}
}

const (
	headerLen = 5

	// MaxPayload bounds the payload a Reader accepts.
	MaxPayload = 16 << 20

	hpackTableSize = 4096
)

// ErrFrameTooLarge is returned for payloads over MaxPayload.
var ErrFrameTooLarge = errors.New("frame: payload too large")

// Frame is one decoded frame. Payload is owned by the caller.
type Frame struct {
	Type    Type
	Payload []byte
}

// Writer encodes frames onto w. It is not safe for concurrent use.
type Writer struct {
	w      io.Writer
	hbuf   bytes.Buffer
	henc   *hpack.Encoder
	header [headerLen]byte
}

func NewWriter(w io.Writer) *Writer {
	fw := &Writer{w: w}
	fw.henc = hpack.NewEncoder(&fw.hbuf)
	return fw
}

// WriteData writes a data frame. Empty chunks are skipped.
func (w *Writer) WriteData(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return w.write(TypeData, p)
}

// WriteTrailers writes the terminating trailers frame. A nil md writes an
// empty header block.
func (w *Writer) WriteTrailers(md metadata.MD) error {
	w.hbuf.Reset()

	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range md[k] {
			if err := w.henc.WriteField(hpack.HeaderField{Name: k, Value: v}); err != nil {
				return err
			}
		}
	}

	return w.write(TypeTrailers, w.hbuf.Bytes())
}

// WriteStatus writes the terminating status frame.
func (w *Writer) WriteStatus(s *status.Status) error {
	msg := s.Message()
	p := make([]byte, 4+len(msg))
	binary.BigEndian.PutUint32(p, uint32(s.Code()))
	copy(p[4:], msg)
	return w.write(TypeStatus, p)
}

func (w *Writer) write(t Type, p []byte) error {
	if len(p) > MaxPayload {
		return ErrFrameTooLarge
	}

	w.header[0] = byte(t)
	binary.BigEndian.PutUint32(w.header[1:], uint32(len(p)))
	if _, err := w.w.Write(w.header[:]); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	_, err := w.w.Write(p)
	return err
}

// Reader decodes frames from r. It is not safe for concurrent use.
type Reader struct {
	r      io.Reader
	hdec   *hpack.Decoder
	header [headerLen]byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:    r,
		hdec: hpack.NewDecoder(hpackTableSize, nil),
	}
}

// ReadFrame reads the next frame. It returns io.EOF only if the stream
// ended cleanly between frames.
func (r *Reader) ReadFrame() (Frame, error) {
	if _, err := io.ReadFull(r.r, r.header[:]); err != nil {
		return Frame{}, err
	}

	t := Type(r.header[0])
	if t > TypeStatus {
		return Frame{}, fmt.Errorf("frame: unknown frame type %d", uint8(t))
	}

	n := binary.BigEndian.Uint32(r.header[1:])
	if n > MaxPayload {
		return Frame{}, ErrFrameTooLarge
	}

	p := make([]byte, n)
	if _, err := io.ReadFull(r.r, p); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, err
	}

	return Frame{Type: t, Payload: p}, nil
}

// Trailers decodes the header block of a trailers frame. An empty block
// decodes to nil.
func (r *Reader) Trailers(f Frame) (metadata.MD, error) {
	if f.Type != TypeTrailers {
		return nil, fmt.Errorf("frame: expected %s frame, got %s", TypeTrailers, f.Type)
	}

	fields, err := r.hdec.DecodeFull(f.Payload)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	md := metadata.MD{}
	for _, hf := range fields {
		md[hf.Name] = append(md[hf.Name], hf.Value)
	}
	return md, nil
}

// Status decodes the payload of a status frame.
func Status(f Frame) (*status.Status, error) {
	if f.Type != TypeStatus {
		return nil, fmt.Errorf("frame: expected %s frame, got %s", TypeStatus, f.Type)
	}
	if len(f.Payload) < 4 {
		return nil, fmt.Errorf("frame: short status payload (%d bytes)", len(f.Payload))
	}

	code := codes.Code(binary.BigEndian.Uint32(f.Payload))
	return status.New(code, string(f.Payload[4:])), nil
}
