/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package ghcli implements the pull request host on top of the gh CLI, so
// the reconciler reuses whatever authentication gh is logged in with.
package ghcli

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chainguard.dev/lockpr/internal/command"
	"chainguard.dev/lockpr/reconcilers/prreconciler"
	"github.com/chainguard-dev/clog"
)

const (
	binary       = "gh"
	defaultLimit = 30
	listFields   = "id,number,state,title,url,baseRefName,headRefName"
)

// Client drives gh from dir.
type Client struct {
	runner command.Runner
	dir    string
	repo   string
	limit  int
}

// Option configures a Client.
type Option func(*Client)

// WithRepository pins every gh invocation to owner/repo instead of the
// repository gh infers from dir.
func WithRepository(repo string) Option {
	return func(c *Client) {
		c.repo = repo
	}
}

// WithLimit caps the number of search results gh returns.
func WithLimit(n int) Option {
	return func(c *Client) {
		c.limit = n
	}
}

// New returns a Client running gh through runner in dir.
func New(runner command.Runner, dir string, opts ...Option) (*Client, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	c := &Client{runner: runner, dir: dir, limit: defaultLimit}
	for _, opt := range opts {
		opt(c)
	}
	if c.limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", c.limit)
	}
	return c, nil
}

// listArgs builds the gh pr list invocation for q. GitHub search matches
// words and drops punctuation, so it only narrows the candidates.
func (c *Client) listArgs(q prreconciler.Query) []string {
	args := []string{"pr", "list",
		"--base", q.Base,
		"--state", "open",
		"--search", `"` + q.Title + `" in:title`,
		"--json", listFields,
		"--limit", strconv.Itoa(c.limit),
	}
	if c.repo != "" {
		args = append(args, "--repo", c.repo)
	}
	return args
}

// FindOpen implements prreconciler.PullRequests. Results keep gh's order.
// Every hit is re-checked against q since gh search is fuzzy on punctuation.
func (c *Client) FindOpen(ctx context.Context, q prreconciler.Query) ([]prreconciler.PullRequest, error) {
	out, err := c.runner.Run(ctx, c.dir, binary, c.listArgs(q)...)
	if err != nil {
		return nil, fmt.Errorf("gh pr list failed: %w", err)
	}

	out = bytes.TrimSpace(out)
	if len(out) == 0 || bytes.Equal(out, []byte("null")) {
		return nil, nil
	}

	var prs []prreconciler.PullRequest
	if err := json.Unmarshal(out, &prs); err != nil {
		return nil, fmt.Errorf("failed to parse PR list: %w", err)
	}

	matches := prs[:0]
	for _, pr := range prs {
		if q.Matches(pr.Title) {
			matches = append(matches, pr)
		}
	}
	return matches, nil
}

func (c *Client) createArgs(req prreconciler.NewPullRequest) []string {
	args := []string{"pr", "create",
		"--base", req.Base,
		"--head", req.Head,
		"--title", req.Title,
		"--body", req.Body,
	}
	for _, l := range req.Labels {
		args = append(args, "--label", l)
	}
	if req.Draft {
		args = append(args, "--draft")
	}
	if repo := cmp.Or(req.Repository, c.repo); repo != "" {
		args = append(args, "--repo", repo)
	}
	return args
}

// Create implements prreconciler.PullRequests. gh prints the new pull
// request's URL, from which the number is recovered.
func (c *Client) Create(ctx context.Context, req prreconciler.NewPullRequest) (*prreconciler.PullRequest, error) {
	clog.FromContext(ctx).Infof("Running %s", c.Describe(req))

	out, err := c.runner.Run(ctx, c.dir, binary, c.createArgs(req)...)
	if err != nil {
		return nil, fmt.Errorf("gh pr create failed: %w", err)
	}

	url := lastLine(string(out))
	if url == "" {
		return nil, errors.New("gh pr create printed no url")
	}
	number, err := numberFromURL(url)
	if err != nil {
		return nil, err
	}

	return &prreconciler.PullRequest{
		ID:      url,
		Number:  number,
		Title:   req.Title,
		State:   prreconciler.StateOpen,
		BaseRef: req.Base,
		HeadRef: req.Head,
		URL:     url,
	}, nil
}

// Describe renders the gh pr create command line.
func (c *Client) Describe(req prreconciler.NewPullRequest) string {
	return command.Line(binary, c.createArgs(req)...)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func numberFromURL(url string) (int, error) {
	i := strings.LastIndex(url, "/pull/")
	if i < 0 {
		return 0, fmt.Errorf("unexpected pull request url %q", url)
	}
	n, err := strconv.Atoi(strings.TrimSuffix(url[i+len("/pull/"):], "/"))
	if err != nil {
		return 0, fmt.Errorf("parsing pull request number from %q: %w", url, err)
	}
	return n, nil
}

var (
	_ prreconciler.PullRequests = (*Client)(nil)
	_ prreconciler.Describer    = (*Client)(nil)
)
