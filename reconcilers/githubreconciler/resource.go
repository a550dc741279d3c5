/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubreconciler holds the pieces shared by the GitHub backends of
// the pull request reconciler: repository resources and API clients.
package githubreconciler

import (
	"fmt"
	"net/url"
	"strings"
)

// Resource identifies a GitHub repository.
type Resource struct {
	Owner string
	Repo  string
}

// String returns the owner/repo form of the resource.
func (r Resource) String() string {
	return r.Owner + "/" + r.Repo
}

// ParseResource accepts "owner/repo", an https URL such as
// https://github.com/owner/repo(.git), or an scp-style remote such as
// git@github.com:owner/repo.git.
func ParseResource(s string) (Resource, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Resource{}, fmt.Errorf("empty repository")
	}

	path := s
	switch {
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil {
			return Resource{}, fmt.Errorf("parsing repository url %q: %w", s, err)
		}
		path = u.Path
	case strings.HasPrefix(s, "git@"):
		_, after, ok := strings.Cut(s, ":")
		if !ok {
			return Resource{}, fmt.Errorf("malformed remote %q", s)
		}
		path = after
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	owner, repo, ok := strings.Cut(path, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return Resource{}, fmt.Errorf("repository %q is not of the form owner/repo", s)
	}
	return Resource{Owner: owner, Repo: repo}, nil
}
