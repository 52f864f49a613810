package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// stderr kept in logs and warnings
const stderrTail = 4 << 10

// Runner executes an external OCR tool. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs tools as child processes.
type ExecRunner struct {
	Logger  *slog.Logger
	Timeout time.Duration // per invocation; zero leaves only the caller's deadline
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 2 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	elapsed := time.Since(start)

	var notFound *exec.Error
	switch {
	case err == nil:
		logger.Debug("ocr.exec.ok",
			"cmd", name,
			"duration_ms", elapsed.Milliseconds(),
			"stdout_bytes", stdout.Len(),
		)
		return stdout.Bytes(), stderr.Bytes(), nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("%s timed out after %s: %w", name, elapsed.Round(time.Millisecond), ctx.Err())
	case errors.As(err, &notFound):
		err = fmt.Errorf("%s is not installed or not on PATH: %w", name, err)
	}
	logger.Error("ocr.exec.failed",
		"cmd", name,
		"args", strings.Join(args, " "),
		"duration_ms", elapsed.Milliseconds(),
		"error", err,
		"stderr", tail(stderr.Bytes(), stderrTail),
	)
	return stdout.Bytes(), stderr.Bytes(), err
}

// tail keeps the last max bytes; tool errors are printed last.
func tail(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return "(truncated)..." + string(b[len(b)-max:])
}
