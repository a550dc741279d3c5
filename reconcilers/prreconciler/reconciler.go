/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prreconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "chainguard.dev/lockpr/reconcilers/prreconciler"

// Action is what a reconciliation did about the pull request.
type Action string

const (
	// ActionCreated means a pull request was opened.
	ActionCreated Action = "created"
	// ActionSkipped means a matching open pull request already existed.
	ActionSkipped Action = "skipped"
	// ActionDryRun means a pull request would have been opened.
	ActionDryRun Action = "dry_run"
)

// Result reports the outcome of a reconciliation.
type Result struct {
	Base   string
	SHA    string
	Names  Names
	Action Action

	// Existing is the open pull request that satisfied the search.
	Existing *PullRequest
	// Created is the pull request opened by this reconciliation.
	Created *PullRequest
	// Request is the creation request, populated for ActionCreated and
	// ActionDryRun.
	Request *NewPullRequest
	// Plan renders Request the way the backend would execute it.
	Plan string
}

// Reconciler proposes the pending changes of a working copy as a single
// pull request per base commit.
type Reconciler struct {
	workingCopy WorkingCopy
	prs         PullRequests

	branchPrefix  string
	titlePrefix   string
	body          string
	commitMessage string
	remote        string
	repository    string
	labels        []string
	hashLength    int
	exactTitle    bool
	draft         bool
	dryRun        bool
}

// New returns a Reconciler in dry run mode. Both prefixes are required since
// they are what makes the derived names recognizable.
func New(wc WorkingCopy, prs PullRequests, opts ...Option) (*Reconciler, error) {
	if wc == nil {
		return nil, errors.New("working copy cannot be nil")
	}
	if prs == nil {
		return nil, errors.New("pull requests client cannot be nil")
	}

	r := &Reconciler{
		workingCopy:   wc,
		prs:           prs,
		commitMessage: defaultCommitMessage,
		remote:        defaultRemote,
		dryRun:        true,
	}
	for _, opt := range opts {
		opt(r)
	}

	switch {
	case r.branchPrefix == "":
		return nil, errors.New("branch prefix cannot be empty")
	case strings.TrimSpace(r.titlePrefix) == "":
		return nil, errors.New("title prefix cannot be empty")
	case r.commitMessage == "":
		return nil, errors.New("commit message cannot be empty")
	case r.remote == "":
		return nil, errors.New("remote cannot be empty")
	}
	return r, nil
}

// DryRun reports whether side effects are skipped.
func (r *Reconciler) DryRun() bool {
	return r.dryRun
}

// Reconcile ensures an open pull request exists against base for the
// working copy's pending changes. The working copy is returned to base
// before Reconcile returns, whatever the outcome.
func (r *Reconciler) Reconcile(ctx context.Context, base string) (res *Result, err error) {
	if base == "" {
		return nil, errors.New("base branch cannot be empty")
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "prreconciler.Reconcile",
		oteltrace.WithAttributes(
			attribute.String("base", base),
			attribute.Bool("dry_run", r.dryRun),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("action", string(res.Action)))
		}
		span.End()
		observe(res, err)
	}()

	log := clog.FromContext(ctx).With("base", base)

	lease, err := r.workingCopy.Lease(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("leasing working copy: %w", err)
	}
	defer func() {
		if rerr := lease.Return(ctx); rerr != nil {
			log.Errorf("Failed to restore checkout of %s: %v", base, rerr)
			err = errors.Join(err, fmt.Errorf("returning to %s: %w", base, rerr))
			res = nil
		}
	}()

	names := Derive(r.branchPrefix, r.titlePrefix, lease.SHA(), r.hashLength)
	ctx = clog.WithValues(ctx, "branch", names.Branch)
	log = clog.FromContext(ctx)
	log.Infof("Base %s is at %s", base, lease.SHA())

	if err := r.publish(ctx, lease, base, names); err != nil {
		return nil, err
	}

	res = &Result{
		Base:  base,
		SHA:   lease.SHA(),
		Names: names,
	}

	q := Query{Base: base, Title: r.titlePrefix}
	if r.exactTitle {
		q = Query{Base: base, Title: names.Title, Exact: true}
	}
	found, err := r.prs.FindOpen(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("searching pull requests: %w", err)
	}

	if existing := firstExisting(found); existing != nil {
		log.Infof("Open pull request #%d %q already tracks %s, skipping", existing.Number, existing.Title, base)
		res.Action = ActionSkipped
		res.Existing = existing
		return res, nil
	}

	req := &NewPullRequest{
		Repository: r.repository,
		Base:       base,
		Head:       names.Branch,
		Title:      names.Title,
		Body:       r.body,
		Labels:     r.labels,
		Draft:      r.draft,
	}
	res.Request = req
	res.Plan = r.describe(*req)

	if r.dryRun {
		log.Infof("Dry run, would create pull request: %s", res.Plan)
		res.Action = ActionDryRun
		return res, nil
	}

	log.Infof("Creating pull request %q against %s", req.Title, base)
	created, err := r.prs.Create(ctx, *req)
	if err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}
	log.Infof("Created pull request #%d: %s", created.Number, created.URL)

	res.Action = ActionCreated
	res.Created = created
	return res, nil
}

// publish commits the pending changes onto the derived branch, rebases it on
// the remote base and pushes it. The push is skipped in dry run.
func (r *Reconciler) publish(ctx context.Context, lease Lease, base string, names Names) error {
	log := clog.FromContext(ctx)

	if err := lease.Commit(ctx, names.Branch, r.commitMessage); err != nil {
		return fmt.Errorf("committing to %s: %w", names.Branch, err)
	}
	if err := lease.Rebase(ctx, r.remote, base); err != nil {
		return fmt.Errorf("rebasing %s onto %s/%s: %w", names.Branch, r.remote, base, err)
	}

	if r.dryRun {
		log.Infof("Dry run, would push %s to %s", names.Branch, r.remote)
		return nil
	}
	if err := lease.Push(ctx, r.remote, names.Branch); err != nil {
		return fmt.Errorf("pushing %s to %s: %w", names.Branch, r.remote, err)
	}
	return nil
}

func (r *Reconciler) describe(req NewPullRequest) string {
	if d, ok := r.prs.(Describer); ok {
		return d.Describe(req)
	}
	return fmt.Sprintf("create pull request %q (%s <- %s) in %s", req.Title, req.Base, req.Head, req.Repository)
}
