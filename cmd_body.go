// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package streambody

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-streambody/internal/cmdrunner"
	"github.com/hashicorp/go-streambody/runner"
	"google.golang.org/grpc/metadata"
)

// TrailerExitStatus is the trailer key carrying a command's exit code.
const TrailerExitStatus = "exit-status"

// FromCommand starts cmd and returns a body of its standard output. Lines
// written to standard error are logged at debug level. Once the process
// exits the body ends with an exit-status trailer. Closing the body kills
// the process.
func FromCommand(cmd *exec.Cmd, config *Config) (*BoxBody, error) {
	logger := config.logger().Named("cmd")

	r, err := cmdrunner.NewCmdRunner(logger, cmd)
	if err != nil {
		return nil, err
	}

	return FromRunner(r, config)
}

// FromRunner is FromCommand for an arbitrary runner.Runner that has not
// been started yet.
func FromRunner(r runner.Runner, config *Config) (*BoxBody, error) {
	logger := config.logger().With("name", r.Name())

	if err := r.Start(); err != nil {
		return nil, err
	}

	tx, rx := NewChannel(config)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer cancel()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			logStderr(r, logger)
		}()

		copyErr := copyStream(ctx, r.Name(), tx, r.Stdout(), config.chunkSize(), logger)
		wg.Wait()
		waitErr := r.Wait()

		var exitErr *exec.ExitError
		switch {
		case copyErr != nil:
			finishStream(tx, copyErr)
		case waitErr != nil && !errors.As(waitErr, &exitErr):
			tx.Abort(waitErr)
		default:
			md := metadata.Pairs(TrailerExitStatus, strconv.Itoa(r.ExitCode()))
			logger.Debug("process finished", mdFields(md)...)
			tx.SendTrailers(md)
		}
	}()

	return MapFrom[[]byte](&cmdBody{ChanBody: rx, runner: r, cancel: cancel}), nil
}

// logStderr drains the process's standard error into the logger.
func logStderr(r runner.Runner, logger hclog.Logger) {
	scanner := bufio.NewScanner(r.Stderr())
	for scanner.Scan() {
		logger.Debug(scanner.Text(), "pid", r.ID())
	}
}

type cmdBody struct {
	*ChanBody

	runner runner.Runner
	cancel context.CancelFunc
}

func (b *cmdBody) Close() error {
	b.cancel()
	b.ChanBody.Close()
	return b.runner.Kill()
}
