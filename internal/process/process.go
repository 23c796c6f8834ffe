package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// DefaultWaitDelay bounds how long Wait keeps draining stderr after the child
// exits while a grandchild still holds the pipe open.
const DefaultWaitDelay = 5 * time.Second

// Starter launches external commands
type Starter interface {
	Start(ctx context.Context, args ...string) (Handle, error)
}

// Handle is a running external command owned by a single caller
type Handle interface {
	// Read reads the child's standard output
	Read(p []byte) (int, error)
	// Wait blocks until the child exits. Calls after the first return the
	// same status.
	Wait() ExitStatus
	// Terminate force-kills the child. Safe to call repeatedly and after exit.
	Terminate()
	// Stderr returns the diagnostic text collected so far
	Stderr() string
}

// ExitStatus describes how a child process finished
type ExitStatus struct {
	Code   int
	Stderr string
	Killed bool
}

// Success reports whether the child exited with status zero
func (s ExitStatus) Success() bool {
	return s.Code == 0 && !s.Killed
}

// SpawnError is returned when the command could not be started at all
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Runner starts processes of a single binary
type Runner struct {
	Path      string
	WaitDelay time.Duration
}

// NewRunner creates a runner for the given binary
func NewRunner(path string) *Runner {
	return &Runner{
		Path:      path,
		WaitDelay: DefaultWaitDelay,
	}
}

// Start spawns the binary with args and returns as soon as the process
// exists. Stdout is exposed through the returned handle without buffering,
// so a consumer that stops reading eventually blocks the child's writes.
//
// The context is only checked before spawning. The caller owns the process
// and must Terminate or Wait for it.
func (r *Runner) Start(ctx context.Context, args ...string) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &SpawnError{Path: r.Path, Err: err}
	}

	cmd := exec.Command(r.Path, args...)
	cmd.WaitDelay = r.WaitDelay
	setProcessGroup(cmd)

	stderr := newTailBuffer(maxStderrBytes)
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Path: r.Path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: r.Path, Err: err}
	}

	return &Process{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// Process is a Handle backed by an OS process
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer

	waitOnce sync.Once
	status   ExitStatus

	killOnce sync.Once
	mu       sync.Mutex
	exited   bool
	killed   bool
}

// Pid returns the OS process id
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *Process) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if err != nil && errors.Is(err, os.ErrClosed) {
		// Wait closed the pipe after a kill
		err = io.EOF
	}
	return n, err
}

func (p *Process) Wait() ExitStatus {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()

		p.mu.Lock()
		p.exited = true
		killed := p.killed
		p.mu.Unlock()

		code := exitCode(p.cmd, err)
		p.status = ExitStatus{
			Code:   code,
			Stderr: p.stderr.String(),
			Killed: killed && code == -1,
		}
	})
	return p.status
}

func (p *Process) Terminate() {
	p.killOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.exited {
			return
		}
		p.killed = true
		killProcessGroup(p.cmd)
	})
}

func (p *Process) Stderr() string {
	return p.stderr.String()
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		// -1 when the child was terminated by a signal
		return cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}
