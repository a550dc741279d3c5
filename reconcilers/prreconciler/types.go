/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prreconciler

import (
	"context"
	"errors"
)

// ErrNothingToCommit is returned by Lease.Commit when the working copy has no
// pending changes to propose.
var ErrNothingToCommit = errors.New("nothing to commit")

// WorkingCopy hands out exclusive leases on a local checkout.
type WorkingCopy interface {
	// Lease acquires the checkout for a reconciliation against base. The
	// returned Lease must be released with Return.
	Lease(ctx context.Context, base string) (Lease, error)
}

// Lease is an acquired checkout. SHA reports the commit of the base branch
// observed when the lease was taken.
type Lease interface {
	SHA() string

	// Commit creates or resets branch at the current working-tree state and
	// commits all pending changes with message.
	Commit(ctx context.Context, branch, message string) error

	// Rebase replays the checked-out branch onto remote/base.
	Rebase(ctx context.Context, remote, base string) error

	// Push publishes branch to remote, replacing any previous tip.
	Push(ctx context.Context, remote, branch string) error

	// Return checks the base branch back out. It is safe to call after any
	// of the other methods failed.
	Return(ctx context.Context) error
}

// WorkingCopyFunc adapts a lease constructor returning a concrete type to a
// WorkingCopy.
type WorkingCopyFunc[L Lease] func(ctx context.Context, base string) (L, error)

// Lease implements WorkingCopy.
func (f WorkingCopyFunc[L]) Lease(ctx context.Context, base string) (Lease, error) {
	l, err := f(ctx, base)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// State is the state of a pull request on the host.
type State string

const (
	StateOpen   State = "OPEN"
	StateClosed State = "CLOSED"
	StateMerged State = "MERGED"
)

// PullRequest is the subset of a host's pull request record the reconciler
// reads.
type PullRequest struct {
	// ID is the host's opaque identifier. An empty ID or the literal "null"
	// marks an unusable search hit.
	ID      string `json:"id" yaml:"id"`
	Number  int    `json:"number" yaml:"number"`
	Title   string `json:"title" yaml:"title"`
	State   State  `json:"state" yaml:"state"`
	BaseRef string `json:"baseRefName" yaml:"baseRefName"`
	HeadRef string `json:"headRefName" yaml:"headRefName"`
	URL     string `json:"url" yaml:"url"`
}

// Query selects open pull requests against Base whose title contains Title.
// When Exact is set the title must match Title exactly.
type Query struct {
	Base  string
	Title string
	Exact bool
}

// Matches reports whether pr satisfies the query's title condition.
func (q Query) Matches(title string) bool {
	if q.Exact {
		return title == q.Title
	}
	return containsFold(title, q.Title)
}

// NewPullRequest is a request to open a pull request.
type NewPullRequest struct {
	Repository string // owner/repo
	Base       string
	Head       string
	Title      string
	Body       string
	Labels     []string
	Draft      bool
}

// PullRequests is a host's pull request API.
type PullRequests interface {
	FindOpen(ctx context.Context, q Query) ([]PullRequest, error)
	Create(ctx context.Context, req NewPullRequest) (*PullRequest, error)
}

// Describer is implemented by PullRequests backends that can render a
// creation request the way they would execute it.
type Describer interface {
	Describe(req NewPullRequest) string
}
