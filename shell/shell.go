/*
   semwatch - System V semaphore usage sampler
   Copyright (C) 2025 Rapid7 Inc.

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published
   by the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/logging"
	"www.velocidex.com/golang/semwatch/utils"
)

type Result struct {
	Argv       []string
	Stdout     string
	Stderr     string
	ReturnCode int64
	Complete   bool
}

// Runs a command to completion and captures its output. Failures to
// start, non-zero exits and timeouts are all ExternalToolError; the
// result is returned alongside the error when the command ran.
type Runner interface {
	Run(ctx context.Context, argv []string) (*Result, error)
}

type CommandRunner struct {
	config_obj *config.Config
	timeout    time.Duration
}

func NewCommandRunner(config_obj *config.Config) *CommandRunner {
	return &CommandRunner{
		config_obj: config_obj,
		timeout:    config_obj.CommandTimeout.Duration(),
	}
}

func (self *CommandRunner) Run(
	ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: no command to run", utils.InvalidArgumentError)
	}

	logger := logging.GetLogger(self.config_obj, &logging.SamplerComponent)
	logger.Debug("shell: Running external command %v", argv)

	// Kill the subprocess if it takes too long.
	sub_ctx, cancel := context.WithTimeout(ctx, self.timeout)
	defer cancel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	command := exec.CommandContext(sub_ctx, argv[0], argv[1:]...)
	command.Stdout = stdout
	command.Stderr = stderr

	// Grandchildren may keep the output pipes open after the child
	// is killed. Stop waiting for them once the timeout has passed.
	command.WaitDelay = self.timeout

	// Column headers and labels are only stable in the C locale.
	command.Env = append(os.Environ(), "LC_ALL=C")

	err := command.Run()
	result := &Result{
		Argv:   argv,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		result.Complete = true
		return result, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v: %w", utils.ExternalToolError, argv[0], ctx.Err())
	}

	if errors.Is(sub_ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %v timed out after %v",
			utils.ExternalToolError, argv[0], self.timeout)
	}

	var exit_err *exec.ExitError
	if errors.As(err, &exit_err) {
		result.ReturnCode = int64(exit_err.ExitCode())
		return result, fmt.Errorf("%w: %v exited with status %v: %v",
			utils.ExternalToolError, argv[0], result.ReturnCode,
			strings.TrimSpace(result.Stderr))
	}

	// Usually exec.ErrNotFound.
	return nil, fmt.Errorf("%w: %v", utils.ExternalToolError, err)
}
