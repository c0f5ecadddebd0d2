// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// The streambody package defines the message body abstraction that sits
// between a wire transport and an RPC codec.
//
// A transport hands over anything that satisfies Source: a chunk poll, a
// trailer poll and an end-of-stream flag. From grants such a value the
// sealed Body capability, and MapFrom/New erase it into a *BoxBody whose
// chunks are always *Buf and whose errors are always gRPC status errors.
// The RPC layer above only ever sees *BoxBody.
//
// Bodies are polled: a poll either completes (ready) or registers the
// given Waker and returns pending. Callers that prefer to block can use
// (*BoxBody).Data and (*BoxBody).Trailers, which park on a channel until
// woken or until their context is done.
package streambody
