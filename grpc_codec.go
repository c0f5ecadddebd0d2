// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype under which raw body chunks travel.
// Use grpc.CallContentSubtype(CodecName) on the client; servers pick the
// codec up from the registry.
const CodecName = "streambody"

func init() {
	encoding.RegisterCodec(rawCodec{})
}

// rawCodec passes chunks through without any message framing of its own.
type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case []byte:
		return m, nil
	case *[]byte:
		return *m, nil
	case *Buf:
		return m.Bytes(), nil
	default:
		return nil, fmt.Errorf("streambody: cannot marshal %T", v)
	}
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("streambody: cannot unmarshal into %T", v)
	}

	// The transport may reuse data after this returns.
	*m = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string {
	return CodecName
}
