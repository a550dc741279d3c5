/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package clonemanager leases an existing git checkout to the pull request
// reconciler using go-git, without requiring a git binary. A Manager is
// configured with the checkout directory, an optional token source and a
// commit identity, and exposes Lease handles that:
//   - Record the base branch and the commit it points at.
//   - Commit pending working tree changes on a fresh branch.
//   - Force push that branch with token basic auth.
//   - Check the base branch back out when returned.
//
// go-git cannot rebase. Rebase only succeeds when the remote base is already
// contained in the committed branch and reports ErrRebaseUnsupported
// otherwise; use the gitcli backend for checkouts whose base moves often.
package clonemanager
