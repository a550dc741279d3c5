/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prreconciler

import "testing"

func TestDerive(t *testing.T) {
	tests := []struct {
		name   string
		sha    string
		length int
		want   Names
	}{{
		name: "full hash",
		sha:  "abc123",
		want: Names{Commit: "abc123", Branch: "bot/update-abc123", Title: "chore: update-abc123"},
	}, {
		name:   "abbreviated",
		sha:    "0123456789abcdef",
		length: 7,
		want:   Names{Commit: "0123456", Branch: "bot/update-0123456", Title: "chore: update-0123456"},
	}, {
		name:   "length past hash",
		sha:    "abc",
		length: 40,
		want:   Names{Commit: "abc", Branch: "bot/update-abc", Title: "chore: update-abc"},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive("bot/update-", "chore: update-", tt.sha, tt.length); got != tt.want {
				t.Errorf("Derive() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestQueryMatches(t *testing.T) {
	prefix := Query{Base: "main", Title: "[Automated] Recompile"}
	if !prefix.Matches("[automated] recompile lock files abc123") {
		t.Error("prefix query should match case-insensitively")
	}
	if prefix.Matches("chore: bump deps") {
		t.Error("prefix query matched an unrelated title")
	}

	exact := Query{Base: "main", Title: "chore: update-abc123", Exact: true}
	if !exact.Matches("chore: update-abc123") {
		t.Error("exact query should match the same title")
	}
	if exact.Matches("chore: update-abc123 (retry)") {
		t.Error("exact query matched a longer title")
	}
}

func TestFirstExisting(t *testing.T) {
	if got := firstExisting(nil); got != nil {
		t.Errorf("firstExisting(nil) = %+v, want nil", got)
	}
	if got := firstExisting([]PullRequest{{ID: "null", Number: 1}, {ID: "PR_2", Number: 2}}); got != nil {
		t.Errorf("firstExisting with null first hit = %+v, want nil", got)
	}
	got := firstExisting([]PullRequest{{ID: "PR_1", Number: 1}, {ID: "PR_2", Number: 2}})
	if got == nil || got.Number != 1 {
		t.Errorf("firstExisting() = %+v, want #1", got)
	}
}
