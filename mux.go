// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/hashicorp/go-streambody/internal/frame"
	"github.com/hashicorp/yamux"
	"github.com/oklog/run"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FromConn returns a body decoded from conn, which carries the frame
// format written by WriteBody. A status frame from the peer surfaces as
// that status; a stream that ends before its trailers is an error.
// Closing the body closes conn.
func FromConn(conn io.ReadCloser, config *Config) *BoxBody {
	logger := config.logger().Named("mux")
	tx, rx := NewChannel(config)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()

		fr := frame.NewReader(conn)
		for {
			f, err := fr.ReadFrame()
			if err != nil {
				if err == io.EOF {
					err = io.ErrUnexpectedEOF
				}
				logger.Debug("frame read failed", "error", err)
				tx.Abort(err)
				return
			}

			switch f.Type {
			case frame.TypeData:
				if err := tx.SendData(ctx, f.Payload); err != nil {
					logger.Trace("stream consumer went away", "error", err)
					return
				}

			case frame.TypeTrailers:
				md, err := fr.Trailers(f)
				if err != nil {
					tx.Abort(err)
					return
				}
				logger.Trace("received trailers", mdFields(md)...)
				tx.SendTrailers(md)
				return

			case frame.TypeStatus:
				s, err := frame.Status(f)
				if err != nil {
					tx.Abort(err)
					return
				}
				if s.Code() == codes.OK {
					s = status.New(codes.Internal, "streambody: peer sent an OK status frame")
				}
				tx.Abort(s.Err())
				return
			}
		}
	}()

	return MapFrom[[]byte](&connBody{ChanBody: rx, conn: conn, cancel: cancel})
}

type connBody struct {
	*ChanBody

	conn   io.Closer
	cancel context.CancelFunc
}

func (b *connBody) Close() error {
	b.cancel()
	b.ChanBody.Close()
	return b.conn.Close()
}

// WriteBody drains body onto w as frames. A body error is written to the
// peer as a status frame and also returned.
func WriteBody(ctx context.Context, w io.Writer, body *BoxBody) error {
	fw := frame.NewWriter(w)

	for {
		chunk, err := body.Data(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if werr := fw.WriteStatus(FromError(err)); werr != nil {
				return werr
			}
			return err
		}

		if err := fw.WriteData(chunk.Bytes()); err != nil {
			return err
		}
		chunk.Advance(chunk.Len())
	}

	md, err := body.Trailers(ctx)
	if err != nil {
		if werr := fw.WriteStatus(FromError(err)); werr != nil {
			return werr
		}
		return err
	}
	return fw.WriteTrailers(md)
}

// SendBody opens a stream on session and writes body to it. The stream is
// returned open so the caller can read a reply, for example with FromConn.
func SendBody(ctx context.Context, session *yamux.Session, body *BoxBody) (net.Conn, error) {
	conn, err := session.Open()
	if err != nil {
		return nil, err
	}

	if err := WriteBody(ctx, conn, body); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// MuxServer accepts streams on a yamux session and hands each one to
// Handler as a body.
type MuxServer struct {
	// Handler is called on its own goroutine for every accepted stream.
	// It owns both the body and the stream and must close them.
	Handler func(body *BoxBody, conn net.Conn)

	// Config is used for every body the server creates.
	Config *Config
}

// Serve accepts streams until ctx is done or the session shuts down, and
// then closes the session.
func (s *MuxServer) Serve(ctx context.Context, session *yamux.Session) error {
	logger := s.Config.logger().Named("mux")

	var g run.Group
	{
		g.Add(func() error {
			for {
				conn, err := session.Accept()
				if err != nil {
					return err
				}

				logger.Trace("accepted stream", "remote", conn.RemoteAddr())
				go s.Handler(FromConn(conn, s.Config), conn)
			}
		}, func(error) {
			session.Close()
		})
	}
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			<-ctx.Done()
			return ctx.Err()
		}, func(error) {
			cancel()
		})
	}

	err := g.Run()
	if errors.Is(err, context.Canceled) || errors.Is(err, yamux.ErrSessionShutdown) {
		return nil
	}
	return err
}
