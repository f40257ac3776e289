// Package shell runs hook commands through the system shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the command
// exits or is cancelled.
const waitDelay = 5 * time.Second

// Executor runs one shell command in a working directory.
//
// A nil error is success. Any failure, including a failure to start the
// shell, is returned as an error; a non-zero exit is a *CommandError carrying
// the captured output.
type Executor interface {
	Run(ctx context.Context, dir, command, name string) error
}

// CommandError reports a command that ran and exited non-zero.
type CommandError struct {
	Name     string
	Command  string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: command %q exited with status %d", e.Name, e.Command, e.ExitCode)
}

// ShellExecutor implements Executor with "sh -c".
type ShellExecutor struct {
	shell string
}

// NewShellExecutor creates a ShellExecutor using /bin/sh semantics.
func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{shell: "sh"}
}

// Run executes command in dir with stdout and stderr captured.
func (s *ShellExecutor) Run(ctx context.Context, dir, command, name string) error {
	cmd := exec.CommandContext(ctx, s.shell, "-c", command)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: execution cancelled: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommandError{
			Name:     name,
			Command:  command,
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
		}
	}
	return fmt.Errorf("%s: failed to execute command: %w", name, err)
}
