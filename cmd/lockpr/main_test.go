/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"chainguard.dev/lockpr/reconcilers/prreconciler"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

// fakeAPI answers the GraphQL pull request search with nodes and counts
// creations.
type fakeAPI struct {
	nodes string

	mu      sync.Mutex
	created int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/graphql", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"repository":{"pullRequests":{"pageInfo":{"hasNextPage":false,"endCursor":""},"nodes":[%s]}}}}`, f.nodes)
	})
	mux.HandleFunc("POST /api/v3/repos/example/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.created++
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"number":7,"node_id":"PR_7","state":"open","html_url":"https://github.com/example/repo/pull/7"}`)
	})
	return mux
}

func TestRunDryRunDefault(t *testing.T) {
	origin, sha := initRepo(t)
	work := cloneRepo(t, origin)
	writeFile(t, filepath.Join(work, "requirements.lock"), "six==1.17.0\n")

	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"--dir", work, "--git-backend", "gogit", "--host-backend", "api"},
		envconfig.MapLookuper(map[string]string{
			"BASE_BRANCH":       "master",
			"GITHUB_REPOSITORY": "example/repo",
			"GITHUB_API_URL":    srv.URL,
			"GITHUB_TOKEN":      "test-token",
		}),
		&out)
	require.NoError(t, err)

	summary := out.String()
	require.Contains(t, summary, string(prreconciler.ActionDryRun))
	require.Contains(t, summary, "lockpr/recompile-"+sha)
	require.Contains(t, summary, `POST /repos/example/repo/pulls`)
	require.Zero(t, api.created)

	// Nothing left the machine.
	originRepo, err := git.PlainOpen(origin)
	require.NoError(t, err)
	_, err = originRepo.Reference(plumbing.NewBranchReferenceName("lockpr/recompile-"+sha), true)
	require.ErrorIs(t, err, plumbing.ErrReferenceNotFound)

	// The checkout is back on the base branch.
	workRepo, err := git.PlainOpen(work)
	require.NoError(t, err)
	head, err := workRepo.Head()
	require.NoError(t, err)
	require.Equal(t, "master", head.Name().Short())
}

func TestRunSkipsExisting(t *testing.T) {
	origin, sha := initRepo(t)
	work := cloneRepo(t, origin)
	writeFile(t, filepath.Join(work, "requirements.lock"), "six==1.17.0\n")

	api := &fakeAPI{nodes: fmt.Sprintf(
		`{"id":"PR_1","number":3,"title":"chore(deps): recompile-%s","state":"OPEN","baseRefName":"master","headRefName":"lockpr/recompile-%s","url":"https://github.com/example/repo/pull/3"}`,
		sha, sha)}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	var pushed []string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushed = append(pushed, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)

	var out bytes.Buffer
	err := run(context.Background(),
		[]string{"--dir", work, "--git-backend", "gogit", "--host-backend", "api", "0"},
		envconfig.MapLookuper(map[string]string{
			"BASE_BRANCH":       "master",
			"GITHUB_REPOSITORY": "example/repo",
			"GITHUB_API_URL":    srv.URL,
			"PUSHGATEWAY_URL":   gateway.URL,
		}),
		&out)
	require.NoError(t, err)

	require.Contains(t, out.String(), string(prreconciler.ActionSkipped))
	require.Contains(t, out.String(), "#3 https://github.com/example/repo/pull/3")
	require.Zero(t, api.created)
	require.Equal(t, []string{"PUT /metrics/job/lockpr"}, pushed)

	// Not a dry run, so the branch was pushed.
	originRepo, err := git.PlainOpen(origin)
	require.NoError(t, err)
	_, err = originRepo.Reference(plumbing.NewBranchReferenceName("lockpr/recompile-"+sha), true)
	require.NoError(t, err)
}

func TestRunUsageErrors(t *testing.T) {
	ctx := context.Background()
	env := envconfig.MapLookuper(nil)

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad dry run", args: []string{"--dir", t.TempDir(), "yes"}},
		{name: "extra argument", args: []string{"--dir", t.TempDir(), "1", "1"}},
		{name: "unknown flag", args: []string{"--nope"}},
		{name: "unknown git backend", args: []string{"--dir", t.TempDir(), "--git-backend", "svn"}},
		{name: "unknown host backend", args: []string{"--dir", t.TempDir(), "--host-backend", "gitlab"}},
		{name: "api without repository", args: []string{"--dir", t.TempDir(), "--host-backend", "api"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(ctx, tt.args, env, io.Discard); err == nil {
				t.Errorf("run(%q) succeeded, want error", tt.args)
			}
		})
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	err := writeSummary(&buf, &prreconciler.Result{
		Base:   "main",
		SHA:    "abc123",
		Names:  prreconciler.Names{Commit: "abc123", Branch: "bot/update-abc123", Title: "chore: update-abc123"},
		Action: prreconciler.ActionCreated,
		Created: &prreconciler.PullRequest{
			Number: 42,
			URL:    "https://github.com/DataDog/dd-trace-py/pull/42",
		},
	}, false)
	require.NoError(t, err)

	got := buf.String()
	for _, want := range []string{"Field", "bot/update-abc123", "chore: update-abc123", "created", "#42 https://github.com/DataDog/dd-trace-py/pull/42"} {
		require.Contains(t, got, want)
	}
	require.NotContains(t, got, "Plan")
}

func initRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "requirements.lock"), "six==1.16.0\n")
	_, err = wt.Add("requirements.lock")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir, hash.String()
}

func cloneRepo(t *testing.T, origin string) string {
	t.Helper()

	dir := t.TempDir()
	_, err := git.PlainClone(dir, false, &git.CloneOptions{
		URL:           origin,
		ReferenceName: plumbing.NewBranchReferenceName("master"),
		SingleBranch:  true,
	})
	require.NoError(t, err)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
