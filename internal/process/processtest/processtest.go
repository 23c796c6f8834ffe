// Package processtest provides scripted stand-ins for external processes.
package processtest

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/therealutkarshpriyadarshi/mediagate/internal/process"
)

// Process replays a fixed list of stdout chunks and then exits with Status.
// When Endless is set it keeps producing Endless until terminated. When Hang
// is set it goes silent after the chunks until terminated.
type Process struct {
	Chunks  [][]byte
	Endless []byte
	Hang    bool
	Status  process.ExitStatus

	mu         sync.Mutex
	pending    []byte
	next       int
	terminated chan struct{}
	once       sync.Once
	calls      atomic.Int32
	bytesRead  atomic.Int64
}

// NewProcess returns a process emitting chunks and exiting with code
func NewProcess(code int, stderr string, chunks ...[]byte) *Process {
	return &Process{
		Chunks: chunks,
		Status: process.ExitStatus{Code: code, Stderr: stderr},
	}
}

// NewEndlessProcess returns a process that writes chunk forever
func NewEndlessProcess(chunk []byte) *Process {
	return &Process{Endless: chunk}
}

func (p *Process) done() chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminated == nil {
		p.terminated = make(chan struct{})
	}
	return p.terminated
}

func (p *Process) isTerminated() bool {
	select {
	case <-p.done():
		return true
	default:
		return false
	}
}

func (p *Process) Read(b []byte) (int, error) {
	done := p.done()
	if p.isTerminated() {
		return 0, io.EOF
	}

	p.mu.Lock()
	if len(p.pending) == 0 {
		switch {
		case p.next < len(p.Chunks):
			p.pending = p.Chunks[p.next]
			p.next++
		case p.Endless != nil:
			p.pending = p.Endless
		case p.Hang:
			p.mu.Unlock()
			<-done
			return 0, io.EOF
		default:
			p.mu.Unlock()
			return 0, io.EOF
		}
	}

	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	p.mu.Unlock()

	p.bytesRead.Add(int64(n))
	return n, nil
}

func (p *Process) Wait() process.ExitStatus {
	if p.Endless != nil || p.Hang {
		<-p.done()
	}
	if p.isTerminated() {
		return process.ExitStatus{Code: -1, Stderr: p.Status.Stderr, Killed: true}
	}
	return p.Status
}

func (p *Process) Terminate() {
	p.calls.Add(1)
	done := p.done()
	p.once.Do(func() { close(done) })
}

func (p *Process) Stderr() string {
	return p.Status.Stderr
}

// TerminateCalls returns how many times Terminate was invoked
func (p *Process) TerminateCalls() int {
	return int(p.calls.Load())
}

// Terminated reports whether Terminate was invoked at least once
func (p *Process) Terminated() bool {
	return p.isTerminated()
}

// BytesRead returns the number of stdout bytes handed to the reader
func (p *Process) BytesRead() int64 {
	return p.bytesRead.Load()
}

// NewHangingProcess returns a process that emits chunks and then stalls
func NewHangingProcess(chunks ...[]byte) *Process {
	return &Process{Chunks: chunks, Hang: true}
}

// Starter hands out a preconfigured process and records the arguments
type Starter struct {
	Process *Process
	Err     error

	mu    sync.Mutex
	calls [][]string
}

func (s *Starter) Start(ctx context.Context, args ...string) (process.Handle, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), args...))
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	return s.Process, nil
}

// Calls returns the argument vectors of every Start call
func (s *Starter) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.calls...)
}

// LastArgs returns the arguments of the most recent Start call
func (s *Starter) LastArgs() []string {
	calls := s.Calls()
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1]
}
