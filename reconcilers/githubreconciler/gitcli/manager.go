/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gitcli leases a local checkout to the pull request reconciler by
// driving the git binary. Unlike the go-git backend it supports rebasing onto
// a base branch that moved, and it honors the user's git configuration,
// credential helpers and hooks.
package gitcli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/lockpr/internal/command"
	"chainguard.dev/lockpr/reconcilers/prreconciler"
	"github.com/chainguard-dev/clog"
)

const binary = "git"

// Manager hands out leases on the checkout at dir.
type Manager struct {
	runner command.Runner
	dir    string

	authorName  string
	authorEmail string
}

// Option configures a Manager.
type Option func(*Manager)

// WithAuthor commits as name <email> instead of the configured git identity.
func WithAuthor(name, email string) Option {
	return func(m *Manager) {
		m.authorName = name
		m.authorEmail = email
	}
}

// New returns a Manager for the checkout at dir.
func New(runner command.Runner, dir string, opts ...Option) (*Manager, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	m := &Manager{runner: runner, dir: dir}
	for _, opt := range opts {
		opt(m)
	}
	if (m.authorName == "") != (m.authorEmail == "") {
		return nil, errors.New("author name and email must be set together")
	}
	return m, nil
}

// Lease is a checkout acquired for one reconciliation against base.
type Lease struct {
	manager *Manager
	base    string
	sha     string
}

// Lease resolves base and returns a Lease bound to it.
func (m *Manager) Lease(ctx context.Context, base string) (*Lease, error) {
	if base == "" {
		return nil, errors.New("base cannot be empty")
	}

	out, err := m.git(ctx, "rev-parse", "--verify", base+"^{commit}")
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", base, err)
	}
	sha := strings.TrimSpace(out)
	if sha == "" {
		return nil, fmt.Errorf("resolving %s: empty hash", base)
	}

	clog.FromContext(ctx).Debugf("Leased %s at %s in %s", base, sha, m.dir)
	return &Lease{manager: m, base: base, sha: sha}, nil
}

func (m *Manager) git(ctx context.Context, args ...string) (string, error) {
	out, err := m.runner.Run(ctx, m.dir, binary, args...)
	return string(out), err
}

// SHA returns the base commit observed when the lease was taken.
func (l *Lease) SHA() string {
	return l.sha
}

// Commit points branch at HEAD, keeping the working tree, and commits every
// pending change to it. Returns prreconciler.ErrNothingToCommit for a clean
// working tree.
func (l *Lease) Commit(ctx context.Context, branch, message string) error {
	if branch == "" {
		return errors.New("branch name cannot be empty")
	}
	if message == "" {
		return errors.New("commit message cannot be empty")
	}

	m := l.manager
	if _, err := m.git(ctx, "checkout", "-B", branch); err != nil {
		return fmt.Errorf("checking out branch: %w", err)
	}
	if _, err := m.git(ctx, "add", "--all"); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}

	status, err := m.git(ctx, "status", "--porcelain")
	if err != nil {
		return fmt.Errorf("getting status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		return prreconciler.ErrNothingToCommit
	}

	args := []string{"commit", "--message", message}
	if m.authorName != "" {
		args = append([]string{"-c", "user.name=" + m.authorName, "-c", "user.email=" + m.authorEmail}, args...)
	}
	if _, err := m.git(ctx, args...); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Rebase fetches base from remote and rebases the current branch onto it. A
// failed rebase is aborted so the checkout can be returned.
func (l *Lease) Rebase(ctx context.Context, remote, base string) error {
	m := l.manager
	if _, err := m.git(ctx, "fetch", remote, base); err != nil {
		return fmt.Errorf("fetching %s from %s: %w", base, remote, err)
	}

	if _, err := m.git(ctx, "rebase", remote+"/"+base); err != nil {
		if _, aerr := m.git(ctx, "rebase", "--abort"); aerr != nil {
			clog.FromContext(ctx).Warnf("Failed to abort rebase: %v", aerr)
		}
		return fmt.Errorf("rebasing: %w", err)
	}
	return nil
}

// Push force pushes branch to remote.
func (l *Lease) Push(ctx context.Context, remote, branch string) error {
	refspec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)
	clog.FromContext(ctx).Infof("Force pushing %s to %s", refspec, remote)

	if _, err := l.manager.git(ctx, "push", "--force", remote, refspec); err != nil {
		return fmt.Errorf("force pushing: %w", err)
	}
	return nil
}

// Return checks the base branch back out.
func (l *Lease) Return(ctx context.Context) error {
	if _, err := l.manager.git(ctx, "checkout", l.base); err != nil {
		return fmt.Errorf("checking out %s: %w", l.base, err)
	}
	return nil
}

var _ prreconciler.Lease = (*Lease)(nil)
