// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"io"
	"time"

	"github.com/mitchellh/go-testing-interface"
	"google.golang.org/grpc/metadata"
)

// TestTimeout bounds every blocking call made by the test helpers.
var TestTimeout = 10 * time.Second

// TestBoxBody returns a body that yields chunks in order and then ends
// with md as its trailers. It is fed from a background goroutine so it
// exercises the pending path.
func TestBoxBody(t testing.T, md metadata.MD, chunks ...string) *BoxBody {
	tx, rx := NewChannel(&Config{Capacity: 1})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
		defer cancel()

		for _, c := range chunks {
			if err := tx.SendData(ctx, []byte(c)); err != nil {
				t.Logf("send failed: %s", err)
				return
			}
		}
		tx.SendTrailers(md)
	}()

	return MapFrom[[]byte](rx)
}

// TestChunks drains the data of body and returns each chunk as a string.
// It fails the test on any error other than end of data.
func TestChunks(t testing.T, body *BoxBody) []string {
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	var result []string
	for {
		chunk, err := body.Data(ctx)
		if err == io.EOF {
			return result
		}
		if err != nil {
			t.Fatalf("err should be nil, got %s", err)
			return nil
		}
		result = append(result, chunk.String())
	}
}

// TestDrain drains body completely and returns its chunks and trailers.
func TestDrain(t testing.T, body *BoxBody) ([]string, metadata.MD) {
	chunks := TestChunks(t, body)

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	md, err := body.Trailers(ctx)
	if err != nil {
		t.Fatalf("err should be nil, got %s", err)
	}
	if !body.IsEndStream() {
		t.Fatalf("body should be at end of stream after draining")
	}
	return chunks, md
}
