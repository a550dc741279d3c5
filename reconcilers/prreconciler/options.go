/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prreconciler

const (
	defaultRemote        = "origin"
	defaultCommitMessage = "Recompile dependency lock files"
)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithBranchPrefix sets the prefix of the derived branch name.
func WithBranchPrefix(prefix string) Option {
	return func(r *Reconciler) {
		r.branchPrefix = prefix
	}
}

// WithTitlePrefix sets the prefix of the derived pull request title. The
// prefix alone is what the search matches on.
func WithTitlePrefix(prefix string) Option {
	return func(r *Reconciler) {
		r.titlePrefix = prefix
	}
}

// WithBody sets the body of created pull requests.
func WithBody(body string) Option {
	return func(r *Reconciler) {
		r.body = body
	}
}

// WithCommitMessage overrides the message used for the proposal commit.
func WithCommitMessage(message string) Option {
	return func(r *Reconciler) {
		r.commitMessage = message
	}
}

// WithRemote overrides the git remote pushed to and rebased against.
func WithRemote(remote string) Option {
	return func(r *Reconciler) {
		r.remote = remote
	}
}

// WithRepository sets the owner/repo pull requests are created in.
func WithRepository(repo string) Option {
	return func(r *Reconciler) {
		r.repository = repo
	}
}

// WithDryRun toggles dry run. Reconcilers start in dry run.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) {
		r.dryRun = dryRun
	}
}

// WithHashLength abbreviates the base commit hash used in derived names.
func WithHashLength(n int) Option {
	return func(r *Reconciler) {
		r.hashLength = n
	}
}

// WithExactTitleMatch makes the search require the full derived title
// instead of any title containing the prefix.
func WithExactTitleMatch(exact bool) Option {
	return func(r *Reconciler) {
		r.exactTitle = exact
	}
}

// WithLabels sets labels applied to created pull requests.
func WithLabels(labels ...string) Option {
	return func(r *Reconciler) {
		r.labels = labels
	}
}

// WithDraft opens created pull requests as drafts.
func WithDraft(draft bool) Option {
	return func(r *Reconciler) {
		r.draft = draft
	}
}
