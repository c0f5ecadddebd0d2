// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
)

// FromClientStream returns a body of the raw messages received on stream,
// which must have been opened with grpc.CallContentSubtype(CodecName) and
// have its send side closed. The stream's trailer metadata becomes the
// body's trailers; a failed call surfaces as its status error.
//
// Closing the body stops delivery but does not cancel the call; cancel the
// context the stream was created with for that.
func FromClientStream(stream grpc.ClientStream, config *Config) *BoxBody {
	logger := config.logger().Named("grpc")
	tx, rx := NewChannel(config)

	ctx, cancel := context.WithCancel(stream.Context())
	go func() {
		defer cancel()

		for {
			var msg []byte
			err := stream.RecvMsg(&msg)
			if err == io.EOF {
				md := stream.Trailer()
				if len(md) == 0 {
					md = nil
				}
				logger.Trace("received trailers", mdFields(md)...)
				tx.SendTrailers(md)
				return
			}
			if err != nil {
				logger.Debug("stream receive failed", "error", err)
				tx.Abort(err)
				return
			}

			if err := tx.SendData(ctx, msg); err != nil {
				if errors.Is(err, ErrBodyClosed) {
					logger.Trace("stream consumer went away", "error", err)
					return
				}
				logger.Debug("stream context done", "error", err)
				tx.Abort(err)
				return
			}
		}
	}()

	return MapFrom[[]byte](rx)
}

// SendServerStream drains body into stream, one message per chunk, then
// sets the body's trailers as the stream's trailer metadata. A body error
// is returned unchanged so the handler can return it as the call status.
func SendServerStream(stream grpc.ServerStream, body *BoxBody) error {
	ctx := stream.Context()

	for {
		chunk, err := body.Data(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if err := stream.SendMsg(chunk.Bytes()); err != nil {
			return err
		}
		chunk.Advance(chunk.Len())
	}

	md, err := body.Trailers(ctx)
	if err != nil {
		return err
	}
	if md != nil {
		stream.SetTrailer(md)
	}
	return nil
}
