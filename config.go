// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

const (
	// EnvLogLevel sets the level of the default logger.
	EnvLogLevel = "STREAMBODY_LOG_LEVEL"

	defaultCapacity  = 16
	defaultChunkSize = 32 * 1024
)

// Config configures the producers in this package that run goroutines.
// The zero value is usable.
type Config struct {
	// Capacity is the number of chunks a Sender may queue before
	// SendData blocks.
	Capacity int

	// ChunkSize is the read size used when pumping an io.Reader.
	ChunkSize int

	// Logger receives errors from background pumps. If nil, a logger
	// named "streambody" is created writing to hclog.DefaultOutput at the
	// level given by STREAMBODY_LOG_LEVEL, info by default.
	Logger hclog.Logger
}

func (c *Config) capacity() int {
	if c == nil || c.Capacity <= 0 {
		return defaultCapacity
	}
	return c.Capacity
}

func (c *Config) chunkSize() int {
	if c == nil || c.ChunkSize <= 0 {
		return defaultChunkSize
	}
	return c.ChunkSize
}

func (c *Config) logger() hclog.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}

	level := hclog.LevelFromString(os.Getenv(EnvLogLevel))
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "streambody",
		Output: hclog.DefaultOutput,
		Level:  level,
	})
}
