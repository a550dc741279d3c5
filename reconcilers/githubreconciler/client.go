/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubreconciler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// NewClient returns a REST client authenticated with ts. A nil ts yields an
// anonymous client. When baseURL is set the client targets that API root
// instead of api.github.com, e.g. a GitHub Enterprise Server or a test server.
func NewClient(ctx context.Context, ts oauth2.TokenSource, baseURL string) (*github.Client, error) {
	var hc *http.Client
	if ts != nil {
		hc = oauth2.NewClient(ctx, ts)
	}

	client := github.NewClient(hc)
	if baseURL == "" {
		return client, nil
	}

	client, err := client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("configuring base url %q: %w", baseURL, err)
	}
	return client, nil
}

// GraphQLEndpoint derives the GraphQL endpoint that pairs with a REST
// client's base URL: https://api.github.com/graphql for github.com and
// https://host/api/graphql for Enterprise Server roots ending in /api/v3/.
func GraphQLEndpoint(client *github.Client) string {
	base := client.BaseURL.String()
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if root, ok := strings.CutSuffix(base, "/api/v3/"); ok {
		return root + "/api/graphql"
	}
	return base + "graphql"
}

// NewGraphQLClient returns a GraphQL client sharing the REST client's
// transport and authentication.
func NewGraphQLClient(client *github.Client) *githubv4.Client {
	return githubv4.NewEnterpriseClient(GraphQLEndpoint(client), client.Client())
}

// NewTokenSource returns a static token source, or nil for an empty token so
// callers fall back to ambient authentication.
func NewTokenSource(token string) oauth2.TokenSource {
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}
