/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package prreconciler keeps exactly one open pull request proposing the
// pending changes in a working copy against a base branch.
//
// The branch name and title of the proposal are derived from the commit hash
// at the tip of the base branch, so they double as idempotency keys. A
// Reconciler:
//   - Leases the working copy for the base branch and resolves its commit.
//   - Commits pending changes to the derived branch, rebases and pushes it.
//   - Searches the host for open pull requests whose title contains the
//     title prefix, and creates one only when none is found.
//   - Returns the working copy to the base branch on every exit path.
//
// Dry run is the default: the push and the creation are skipped and the
// would-be creation is reported in the Result instead.
//
// The search-then-create sequence is a best effort check. Two concurrent
// reconciliations against the same commit may both observe no pull request.
package prreconciler
