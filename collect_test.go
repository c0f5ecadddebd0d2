// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"io"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestReadAll(t *testing.T) {
	b := TestBoxBody(t, metadata.Pairs("checksum", "42"), "hello ", "world")

	data, md, err := ReadAll(context.Background(), b)
	if err != nil {
		t.Fatalf("err should be nil, got %s", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("bad: %q", data)
	}
	if md.Get("checksum")[0] != "42" {
		t.Fatalf("bad: %#v", md)
	}
}

func TestNewReader(t *testing.T) {
	b := TestBoxBody(t, nil, "ab", "", "cde")

	data, err := io.ReadAll(NewReader(context.Background(), b))
	if err != nil {
		t.Fatalf("err should be nil, got %s", err)
	}
	if string(data) != "abcde" {
		t.Fatalf("bad: %q", data)
	}
}
