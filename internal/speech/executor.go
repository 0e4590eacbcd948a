// Package speech vocalizes text through an external text-to-speech command.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when the command outlives its timeout.
var ErrTimeout = errors.New("speech command timed out")

// Executor runs the text-to-speech command with a timeout.
type Executor struct {
	command string
	args    []string
	timeout time.Duration
}

// NewExecutor creates an Executor for command and args.
func NewExecutor(command string, args []string, timeout time.Duration) *Executor {
	return &Executor{
		command: command,
		args:    append([]string(nil), args...),
		timeout: timeout,
	}
}

// Run speaks text. The text is written to the command's stdin.
func (e *Executor) Run(ctx context.Context, text string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}

	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("speech command failed: %w, stderr: %s", err, msg)
		}
		return fmt.Errorf("speech command failed: %w", err)
	}

	return nil
}
