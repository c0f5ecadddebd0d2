// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"io"

	"github.com/valyala/bytebufferpool"
	"google.golang.org/grpc/metadata"
)

// ReadAll drains body and returns its data and trailers. On error the data
// read so far is returned along with the status error.
func ReadAll(ctx context.Context, body *BoxBody) ([]byte, metadata.MD, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for {
		chunk, err := body.Data(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return detach(buf), nil, err
		}
		if _, err := chunk.WriteTo(buf); err != nil {
			return detach(buf), nil, err
		}
	}

	md, err := body.Trailers(ctx)
	return detach(buf), md, err
}

// detach copies the contents of a pooled buffer before it is returned to
// the pool.
func detach(buf *bytebufferpool.ByteBuffer) []byte {
	if buf.Len() == 0 {
		return nil
	}
	return append([]byte(nil), buf.B...)
}

// NewReader returns an io.Reader over the data of body. Trailers are not
// read.
func NewReader(ctx context.Context, body *BoxBody) io.Reader {
	return &bodyReader{ctx: ctx, body: body}
}

type bodyReader struct {
	ctx  context.Context
	body *BoxBody
	cur  *Buf
	err  error
}

func (r *bodyReader) Read(p []byte) (int, error) {
	for r.cur == nil || r.cur.Len() == 0 {
		if r.err != nil {
			return 0, r.err
		}
		r.cur, r.err = r.body.Data(r.ctx)
	}

	return r.cur.Read(p)
}
