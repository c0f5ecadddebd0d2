// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/hashicorp/go-hclog"
)

// FromReader returns a body that reads r in chunks of config.ChunkSize on
// a background goroutine. Closing the returned body stops the pump and
// closes r if it is an io.Closer.
func FromReader(r io.Reader, config *Config) *BoxBody {
	tx, rx := NewChannel(config)
	ctx, cancel := context.WithCancel(context.Background())

	logger := config.logger()
	go func() {
		defer cancel()
		finishStream(tx, copyStream(ctx, "reader", tx, r, config.chunkSize(), logger))
	}()

	return MapFrom[[]byte](&readerBody{ChanBody: rx, src: r, cancel: cancel})
}

// readerBody ties the lifetime of the pump to the body.
type readerBody struct {
	*ChanBody

	src    io.Reader
	cancel context.CancelFunc
}

func (b *readerBody) Close() error {
	b.cancel()
	err := b.ChanBody.Close()
	if c, ok := b.src.(io.Closer); ok {
		if cerr := c.Close(); cerr != nil {
			err = cerr
		}
	}
	return err
}

// copyStream pumps src into dst until EOF, an error, or ctx is done. It
// returns nil at EOF. Each read gets a fresh buffer since the chunks are
// handed off uncopied.
func copyStream(ctx context.Context, name string, dst *Sender, src io.Reader, size int, logger hclog.Logger) error {
	if src == nil {
		panic(name + ": src is nil")
	}
	if dst == nil {
		panic(name + ": dst is nil")
	}

	for {
		buf := make([]byte, size)
		n, err := src.Read(buf)
		if n > 0 {
			if serr := dst.SendData(ctx, buf[:n]); serr != nil {
				logger.Trace("stream consumer went away", "name", name, "error", serr)
				return serr
			}
		}

		switch {
		case err == nil:
			continue
		case err == io.EOF:
			return nil
		}

		// Linux kernel return EIO when attempting to read from a master pseudo
		// terminal which no longer has an open slave. So treat it as EOF.
		// See https://github.com/creack/pty/issues/21
		if pathErr, ok := err.(*os.PathError); ok && pathErr.Err == syscall.EIO {
			return nil
		}

		logger.Error("stream copy error", "name", name, "error", err)
		return err
	}
}

// finishStream ends tx according to the result of copyStream.
func finishStream(tx *Sender, err error) {
	switch {
	case err == nil:
		tx.Close()
	case errors.Is(err, ErrBodyClosed), errors.Is(err, context.Canceled):
	default:
		tx.Abort(err)
	}
}
