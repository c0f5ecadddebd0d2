// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"context"
	"errors"

	"github.com/hashicorp/yamux"
	"golang.org/x/net/http2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// grpcStatus is implemented by errors that carry a gRPC status, including
// the ones returned by (*status.Status).Err.
type grpcStatus interface {
	GRPCStatus() *status.Status
}

// FromError returns the status that best describes err. It never fails:
// errors it does not recognise become codes.Unknown with err's message.
// A nil error is reported as codes.OK.
//
// The error chain is searched with errors.As, so a status error wrapped
// with fmt.Errorf("...: %w") keeps its code.
func FromError(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}

	var se grpcStatus
	if errors.As(err, &se) {
		if s := se.GRPCStatus(); s != nil {
			return nonOK(s, err)
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, err.Error())
	}

	var streamErr http2.StreamError
	if errors.As(err, &streamErr) {
		return status.New(http2Code(streamErr.Code), err.Error())
	}
	var connErr http2.ConnectionError
	if errors.As(err, &connErr) {
		return status.New(http2Code(http2.ErrCode(connErr)), err.Error())
	}

	switch {
	case errors.Is(err, yamux.ErrSessionShutdown),
		errors.Is(err, yamux.ErrConnectionReset),
		errors.Is(err, yamux.ErrRemoteGoAway):
		return status.New(codes.Unavailable, err.Error())
	case errors.Is(err, yamux.ErrTimeout):
		return status.New(codes.DeadlineExceeded, err.Error())
	}

	return status.New(codes.Unknown, err.Error())
}

// MapError converts an error the caller gives up. A status error is
// returned as-is; everything else goes through FromError.
func MapError(err error) *status.Status {
	if se, ok := err.(grpcStatus); ok {
		if s := se.GRPCStatus(); s != nil {
			return nonOK(s, err)
		}
	}

	return FromError(err)
}

// nonOK keeps a real error from turning into codes.OK, whose Err is nil.
func nonOK(s *status.Status, err error) *status.Status {
	if s.Code() == codes.OK {
		return status.New(codes.Unknown, err.Error())
	}
	return s
}

// http2Code maps an HTTP/2 RST_STREAM or GOAWAY code onto a gRPC code.
func http2Code(code http2.ErrCode) codes.Code {
	switch code {
	case http2.ErrCodeNo,
		http2.ErrCodeProtocol,
		http2.ErrCodeInternal,
		http2.ErrCodeFlowControl,
		http2.ErrCodeSettingsTimeout,
		http2.ErrCodeStreamClosed,
		http2.ErrCodeFrameSize,
		http2.ErrCodeCompression,
		http2.ErrCodeConnect:
		return codes.Internal
	case http2.ErrCodeRefusedStream:
		return codes.Unavailable
	case http2.ErrCodeCancel:
		return codes.Canceled
	case http2.ErrCodeEnhanceYourCalm:
		return codes.ResourceExhausted
	case http2.ErrCodeInadequateSecurity:
		return codes.PermissionDenied
	default:
		return codes.Unknown
	}
}
