/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package command runs external tools for the CLI-backed reconciler backends.
// Production code uses Exec; tests inject a Mock that replays canned output
// and records every invocation.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"sync"

	"al.essio.dev/pkg/shellescape"
)

// Runner executes a command in dir and returns its stdout. A non-zero exit
// is reported as an error carrying the command's stderr.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// Exec runs commands with os/exec.
type Exec struct{}

// Run implements Runner.
func (Exec) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &Error{
			Command: Line(name, args...),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return stdout.Bytes(), nil
}

// Error describes a failed command.
type Error struct {
	Command string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Line renders a command as a shell-quoted string suitable for display.
func Line(name string, args ...string) string {
	return shellescape.QuoteCommand(append([]string{name}, args...))
}

// Response is the canned result of a mocked command.
type Response struct {
	Stdout []byte
	Err    error
}

// Call records a single invocation seen by a Mock.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Line renders the call as a shell-quoted string.
func (c Call) Line() string {
	return Line(c.Name, c.Args...)
}

type rule struct {
	name   string
	prefix []string
	resp   Response
}

// Mock is a Runner that matches commands by name and argument prefix, in
// registration order. Unmatched commands succeed with empty output.
type Mock struct {
	mu    sync.Mutex
	rules []rule
	calls []Call
}

// NewMock returns an empty Mock.
func NewMock() *Mock {
	return &Mock{}
}

// On registers resp for commands named name whose arguments start with prefix.
func (m *Mock) On(name string, prefix []string, resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{name: name, prefix: prefix, resp: resp})
}

// Calls returns a copy of the recorded invocations.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Run implements Runner.
func (m *Mock) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Dir: dir, Name: name, Args: slices.Clone(args)})
	for _, r := range m.rules {
		if r.name == name && len(args) >= len(r.prefix) && slices.Equal(args[:len(r.prefix)], r.prefix) {
			return r.resp.Stdout, r.resp.Err
		}
	}
	return nil, nil
}

var (
	_ Runner = Exec{}
	_ Runner = (*Mock)(nil)
)
