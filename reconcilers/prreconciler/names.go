/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prreconciler

import "strings"

// nullID is what JSON tooling prints for a missing identifier.
const nullID = "null"

// Names are the identifiers derived from a base commit.
type Names struct {
	Commit string
	Branch string
	Title  string
}

// Derive returns the branch name and pull request title for sha. When length
// is positive the hash is abbreviated to that many characters first.
func Derive(branchPrefix, titlePrefix, sha string, length int) Names {
	ref := Abbreviate(sha, length)
	return Names{
		Commit: ref,
		Branch: branchPrefix + ref,
		Title:  titlePrefix + ref,
	}
}

// Abbreviate truncates sha to n characters. A non-positive n, or one longer
// than sha, returns sha unchanged.
func Abbreviate(sha string, n int) string {
	if n <= 0 || n >= len(sha) {
		return sha
	}
	return sha[:n]
}

// firstExisting returns the first search hit when it carries a usable
// identifier. Only the first hit is considered.
func firstExisting(prs []PullRequest) *PullRequest {
	if len(prs) == 0 {
		return nil
	}
	switch id := strings.TrimSpace(prs[0].ID); id {
	case "", nullID:
		return nil
	}
	pr := prs[0]
	return &pr
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
