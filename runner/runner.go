// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"io"
)

// Runner is a process whose standard output becomes a body. Implementations
// must be started before Stdout or Stderr are read.
type Runner interface {
	Start() error
	Wait() error
	Kill() error
	Stdout() io.ReadCloser
	Stderr() io.ReadCloser

	// ExitCode returns the exit code of the process once Wait has
	// returned, or -1 while it is still running.
	ExitCode() int

	Name() string
	ID() string
}
