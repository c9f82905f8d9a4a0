package render

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"quotereel/internal/pkg/errors"
	"quotereel/internal/pkg/logger"
)

// stderrTailBytes bounds how much encoder stderr we keep for diagnostics.
const stderrTailBytes = 8 * 1024

var commandContext = exec.CommandContext

// Encoder runs the external media encoder with a hard wall-clock
// timeout. The subprocess can never outlive the calling job: the
// command context kills it on timeout and WaitDelay covers a child
// that ignores the signal.
type Encoder struct {
	bin     string
	timeout time.Duration
	log     *logger.Logger
}

func NewEncoder(bin string, timeout time.Duration, log *logger.Logger) *Encoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Encoder{bin: bin, timeout: timeout, log: log.WithComponent("encoder")}
}

// Timeout reports the configured wall-clock limit.
func (e *Encoder) Timeout() time.Duration { return e.timeout }

// Render executes the encoder with the given argument list. Exit code 0
// means success; a non-zero exit surfaces as RENDER_FAILED with the
// stderr tail, and hitting the timeout surfaces as RENDER_TIMEOUT.
func (e *Encoder) Render(ctx context.Context, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	tail := newTailBuffer(stderrTailBytes)

	cmd := commandContext(runCtx, e.bin, args...)
	cmd.Stderr = tail
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		e.log.Debug("encode finished", "duration_ms", elapsed.Milliseconds())
		return nil
	}

	if runCtx.Err() == context.DeadlineExceeded {
		e.log.Warn("encode killed on timeout",
			"timeout", e.timeout.String(),
			"stderr_tail", tail.String(),
		)
		return errors.RenderTimeout(e.timeout.Seconds())
	}
	if ctx.Err() != nil {
		return errors.WrapWithCode(ctx.Err(), errors.CodeRenderFailed, "render.encode", "encode canceled")
	}

	exitCode := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	}
	e.log.Error("encode failed",
		"exit_code", exitCode,
		"stderr_tail", tail.String(),
	)
	return errors.RenderFailed(exitCode, tail.String())
}

// tailBuffer is an io.Writer that retains only the last max bytes
// written, so a chatty encoder cannot grow memory without bound.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
