// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/grpc/metadata"
)

// mdFields flattens trailers into []interface{} for hclog consumption.
// Keys are sorted, multiple values are joined with a comma and binary
// values are replaced by their length.
func mdFields(md metadata.MD) []interface{} {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result []interface{}
	for _, k := range keys {
		var val string
		if strings.HasSuffix(k, "-bin") {
			n := 0
			for _, v := range md[k] {
				n += len(v)
			}
			val = fmt.Sprintf("<%d bytes>", n)
		} else {
			val = strings.Join(md[k], ",")
		}

		result = append(result, "trailer."+k)
		result = append(result, val)
	}

	return result
}
