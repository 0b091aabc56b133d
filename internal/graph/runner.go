// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

type (
	// Command is one build-tool invocation.
	Command struct {
		// Dir is the working directory.
		Dir string
		// Name is the executable (looked up in PATH).
		Name string
		// Args are the command arguments.
		Args []string
		// Env holds KEY=VALUE pairs added to the inherited environment.
		Env []string
	}

	// Runner executes a build-tool command and returns its standard output.
	Runner interface {
		Run(ctx context.Context, cmd Command) ([]byte, error)
	}

	// ExecRunner runs commands as child processes.
	ExecRunner struct{}

	// CommandError reports a build-tool invocation that exited unsuccessfully.
	CommandError struct {
		Command string
		Dir     string
		Stderr  string
		Err     error
	}
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("'%s' failed in %s: %v", e.Command, e.Dir, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying process error.
func (e *CommandError) Unwrap() error { return e.Err }

// String renders the command line for messages.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Run executes c. Stderr is captured and attached to the returned *CommandError
// on failure.
func (ExecRunner) Run(ctx context.Context, c Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running build tool", "command", c.String(), "dir", c.Dir)
	if err := cmd.Run(); err != nil {
		return nil, &CommandError{
			Command: c.String(),
			Dir:     c.Dir,
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}

	return stdout.Bytes(), nil
}
