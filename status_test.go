// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/yamux"
	"golang.org/x/net/http2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// okStatusErr claims a status of OK while being a real error.
type okStatusErr struct{}

func (okStatusErr) Error() string              { return "not actually ok" }
func (okStatusErr) GRPCStatus() *status.Status { return status.New(codes.OK, "") }

func TestFromError(t *testing.T) {
	cases := []struct {
		Name string
		Err  error
		Code codes.Code
		Msg  string
	}{
		{"nil", nil, codes.OK, ""},
		{"plain", errors.New("boom"), codes.Unknown, "boom"},
		{"status", status.Error(codes.NotFound, "gone"), codes.NotFound, "gone"},
		{
			"wrapped status",
			fmt.Errorf("reading body: %w", status.Error(codes.Aborted, "abort")),
			codes.Aborted, "abort",
		},
		{"canceled", context.Canceled, codes.Canceled, context.Canceled.Error()},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), codes.DeadlineExceeded, ""},
		{"ok status", okStatusErr{}, codes.Unknown, "not actually ok"},
		{"h2 refused", http2.StreamError{StreamID: 1, Code: http2.ErrCodeRefusedStream}, codes.Unavailable, ""},
		{"h2 cancel", http2.StreamError{StreamID: 3, Code: http2.ErrCodeCancel}, codes.Canceled, ""},
		{"h2 protocol", http2.StreamError{StreamID: 3, Code: http2.ErrCodeProtocol}, codes.Internal, ""},
		{"h2 frame size", http2.StreamError{StreamID: 5, Code: http2.ErrCodeFrameSize}, codes.Internal, ""},
		{"h2 stream closed", http2.ConnectionError(http2.ErrCodeStreamClosed), codes.Internal, ""},
		{"h2 calm", http2.ConnectionError(http2.ErrCodeEnhanceYourCalm), codes.ResourceExhausted, ""},
		{"h2 security", http2.ConnectionError(http2.ErrCodeInadequateSecurity), codes.PermissionDenied, ""},
		{"h2 unknown", http2.ConnectionError(http2.ErrCode(0xff)), codes.Unknown, ""},
		{"yamux shutdown", yamux.ErrSessionShutdown, codes.Unavailable, ""},
		{"yamux reset", fmt.Errorf("read: %w", yamux.ErrConnectionReset), codes.Unavailable, ""},
		{"yamux timeout", yamux.ErrTimeout, codes.DeadlineExceeded, ""},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			s := FromError(tc.Err)
			if s == nil {
				t.Fatal("status should never be nil")
			}
			if s.Code() != tc.Code {
				t.Fatalf("bad: %s", s.Code())
			}
			if tc.Msg != "" && s.Message() != tc.Msg {
				t.Fatalf("bad: %q", s.Message())
			}
		})
	}
}

func TestMapError_keepsStatus(t *testing.T) {
	orig := status.New(codes.ResourceExhausted, "slow down")

	s := MapError(orig.Err())
	if s.Code() != codes.ResourceExhausted || s.Message() != "slow down" {
		t.Fatalf("bad: %v", s)
	}

	s = MapError(errors.New("other"))
	if s.Code() != codes.Unknown || s.Message() != "other" {
		t.Fatalf("bad: %v", s)
	}

	s = MapError(okStatusErr{})
	if s.Code() != codes.Unknown {
		t.Fatalf("bad: %v", s)
	}
}

func TestMapError_neverOK(t *testing.T) {
	errs := []error{
		errors.New("x"),
		okStatusErr{},
		fmt.Errorf("wrap: %w", okStatusErr{}),
		http2.ConnectionError(http2.ErrCodeNo),
	}

	for _, err := range errs {
		if s := MapError(err); s.Err() == nil {
			t.Fatalf("bad: %#v mapped to %v", err, s)
		}
	}
}
