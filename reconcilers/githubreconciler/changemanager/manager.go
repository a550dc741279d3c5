/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changemanager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/lockpr/reconcilers/githubreconciler"
	"chainguard.dev/lockpr/reconcilers/prreconciler"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
)

// pageSize is the number of pull requests fetched per GraphQL page.
const pageSize = 100

// Option configures a CM (ChangeManager).
type Option func(*CM)

// WithOwner overrides the GitHub owner (org or user) from the resource.
// When set, all PR operations will use this owner instead of the resource's owner.
func WithOwner(owner string) Option {
	return func(cm *CM) {
		cm.owner = owner
	}
}

// WithRepo overrides the GitHub repository from the resource.
// When set, all PR operations will use this repo instead of the resource's repo.
func WithRepo(repo string) Option {
	return func(cm *CM) {
		cm.repo = repo
	}
}

// WithGraphQLClient replaces the GraphQL client derived from the REST client.
func WithGraphQLClient(gql *githubv4.Client) Option {
	return func(cm *CM) {
		cm.gql = gql
	}
}

// CM searches and opens GitHub pull requests for a repository. Lookups go
// through GraphQL so a single paginated query filters by base branch and
// state; creation goes through the REST API.
type CM struct {
	client *github.Client
	gql    *githubv4.Client
	owner  string
	repo   string
}

// gqlPullRequest is the projection of a pull request node we read.
type gqlPullRequest struct {
	Id          string
	Number      int
	Title       string
	State       string // OPEN, CLOSED, MERGED
	BaseRefName string
	HeadRefName string
	Url         string
}

// New creates a CM for res. Returns an error if client is nil.
func New(client *github.Client, res githubreconciler.Resource, opts ...Option) (*CM, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}

	cm := &CM{
		client: client,
		owner:  res.Owner,
		repo:   res.Repo,
	}
	for _, opt := range opts {
		opt(cm)
	}

	if cm.owner == "" || cm.repo == "" {
		return nil, fmt.Errorf("repository %q is incomplete", cm.owner+"/"+cm.repo)
	}
	if cm.gql == nil {
		cm.gql = githubreconciler.NewGraphQLClient(client)
	}
	return cm, nil
}

// FindOpen returns open pull requests against q.Base whose title satisfies
// q, newest first.
func (cm *CM) FindOpen(ctx context.Context, q prreconciler.Query) ([]prreconciler.PullRequest, error) {
	log := clog.FromContext(ctx)

	var query struct {
		Repository struct {
			PullRequests struct {
				PageInfo struct {
					HasNextPage bool
					EndCursor   githubv4.String
				}
				Nodes []gqlPullRequest
			} `graphql:"pullRequests(baseRefName: $baseRef, states: [OPEN], first: $first, after: $cursor, orderBy: {field: CREATED_AT, direction: DESC})"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]any{
		"owner":   githubv4.String(cm.owner),
		"repo":    githubv4.String(cm.repo),
		"baseRef": githubv4.String(q.Base),
		"first":   githubv4.Int(pageSize),
		"cursor":  (*githubv4.String)(nil),
	}

	var matches []prreconciler.PullRequest
	for {
		if err := cm.gql.Query(ctx, &query, variables); err != nil {
			return nil, fmt.Errorf("querying pull requests: %w", err)
		}

		for _, pr := range query.Repository.PullRequests.Nodes {
			if !q.Matches(pr.Title) {
				continue
			}
			matches = append(matches, prreconciler.PullRequest{
				ID:      pr.Id,
				Number:  pr.Number,
				Title:   pr.Title,
				State:   prreconciler.State(pr.State),
				BaseRef: pr.BaseRefName,
				HeadRef: pr.HeadRefName,
				URL:     pr.Url,
			})
		}

		page := query.Repository.PullRequests.PageInfo
		if !page.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(page.EndCursor)
	}

	log.Debugf("Found %d open pull requests against %s matching %q", len(matches), q.Base, q.Title)
	return matches, nil
}

// Create opens a pull request and applies its labels. req.Repository, when
// set, overrides the manager's repository.
func (cm *CM) Create(ctx context.Context, req prreconciler.NewPullRequest) (*prreconciler.PullRequest, error) {
	owner, repo, err := cm.target(req)
	if err != nil {
		return nil, err
	}

	log := clog.FromContext(ctx)
	log.Infof("Creating new PR in %s/%s with head %s and base %s", owner, repo, req.Head, req.Base)

	pr, _, err := cm.client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.Ptr(req.Title),
		Body:  github.Ptr(req.Body),
		Head:  github.Ptr(req.Head),
		Base:  github.Ptr(req.Base),
		Draft: github.Ptr(req.Draft),
	})
	if err != nil {
		return nil, fmt.Errorf("creating pull request: %w", err)
	}

	if len(req.Labels) > 0 {
		if _, _, err := cm.client.Issues.AddLabelsToIssue(ctx, owner, repo, pr.GetNumber(), req.Labels); err != nil {
			return nil, fmt.Errorf("adding labels: %w", err)
		}
	}

	log.Infof("Created PR #%d: %s", pr.GetNumber(), pr.GetHTMLURL())
	return &prreconciler.PullRequest{
		ID:      pr.GetNodeID(),
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		State:   prreconciler.StateOpen,
		BaseRef: pr.GetBase().GetRef(),
		HeadRef: pr.GetHead().GetRef(),
		URL:     pr.GetHTMLURL(),
	}, nil
}

// Describe renders the REST call Create would make.
func (cm *CM) Describe(req prreconciler.NewPullRequest) string {
	owner, repo, err := cm.target(req)
	if err != nil {
		owner, repo = cm.owner, cm.repo
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "POST /repos/%s/%s/pulls base=%q head=%q title=%q", owner, repo, req.Base, req.Head, req.Title)
	if req.Draft {
		sb.WriteString(" draft=true")
	}
	if len(req.Labels) > 0 {
		fmt.Fprintf(&sb, " labels=%q", strings.Join(req.Labels, ","))
	}
	return sb.String()
}

func (cm *CM) target(req prreconciler.NewPullRequest) (string, string, error) {
	if req.Repository == "" {
		return cm.owner, cm.repo, nil
	}
	res, err := githubreconciler.ParseResource(req.Repository)
	if err != nil {
		return "", "", err
	}
	return res.Owner, res.Repo, nil
}

var (
	_ prreconciler.PullRequests = (*CM)(nil)
	_ prreconciler.Describer    = (*CM)(nil)
)
