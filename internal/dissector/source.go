package dissector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Errors returned when the dissector itself cannot produce a stream.
// They are fatal to a run, unlike an empty stream.
var (
	ErrNotFound = errors.New("dissector not found")
	ErrFailed   = errors.New("dissector failed")
)

const stderrTailBytes = 4096

// LineSource yields dissector output lines in order.
type LineSource interface {
	Lines(ctx context.Context, fn func(line string) error) error
}

// Command runs an external dissector and streams its stdout.
type Command struct {
	Binary string
	Args   []string
}

// String returns the command line for logging.
func (c *Command) String() string {
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Lines starts the process and calls fn for every stdout line. Stderr is drained
// concurrently and quoted in ErrFailed errors. If fn fails the process is killed.
func (c *Command) Lines(ctx context.Context, fn func(line string) error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Binary, c.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, c.Binary)
		}
		return fmt.Errorf("%w: starting %s: %v", ErrFailed, c.Binary, err)
	}

	tail := &tailWriter{max: stderrTailBytes}
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(tail, stderr)
		return err
	})
	g.Go(func() error {
		if err := readLines(stdout, fn); err != nil {
			cancel()
			_, _ = io.Copy(io.Discard, stdout)
			return err
		}
		return nil
	})

	readErr := g.Wait()
	waitErr := cmd.Wait()

	if readErr != nil {
		return readErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return fmt.Errorf("%w: %s exited with status %d: %s",
				ErrFailed, c.Binary, exitErr.ExitCode(), strings.TrimSpace(tail.String()))
		}
		return fmt.Errorf("%w: %v", ErrFailed, waitErr)
	}
	return nil
}

// ReaderSource replays saved dissector output.
type ReaderSource struct {
	R io.Reader
}

// Lines calls fn for every line of the reader.
func (s ReaderSource) Lines(ctx context.Context, fn func(line string) error) error {
	return readLines(s.R, func(line string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(line)
	})
}

// readLines reads newline-terminated records of any length.
func readLines(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading dissector output: %w", err)
		}
	}
}

// tailWriter keeps the last max bytes written to it.
type tailWriter struct {
	max int
	buf []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = w.buf[over:]
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	return string(w.buf)
}
