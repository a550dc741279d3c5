/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubreconciler

import (
	"context"
	"testing"
)

func TestParseResource(t *testing.T) {
	tests := []struct {
		in      string
		want    Resource
		wantErr bool
	}{
		{in: "DataDog/dd-trace-py", want: Resource{Owner: "DataDog", Repo: "dd-trace-py"}},
		{in: "https://github.com/DataDog/dd-trace-py", want: Resource{Owner: "DataDog", Repo: "dd-trace-py"}},
		{in: "https://github.com/DataDog/dd-trace-py.git", want: Resource{Owner: "DataDog", Repo: "dd-trace-py"}},
		{in: "git@github.com:DataDog/dd-trace-py.git", want: Resource{Owner: "DataDog", Repo: "dd-trace-py"}},
		{in: "", wantErr: true},
		{in: "dd-trace-py", wantErr: true},
		{in: "a/b/c", wantErr: true},
		{in: "git@github.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseResource(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseResource(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseResource(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseResource(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.String() != tt.want.Owner+"/"+tt.want.Repo {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestGraphQLEndpoint(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		baseURL string
		want    string
	}{
		{baseURL: "", want: "https://api.github.com/graphql"},
		{baseURL: "https://github.example.com/", want: "https://github.example.com/api/graphql"},
		{baseURL: "https://github.example.com/api/v3", want: "https://github.example.com/api/graphql"},
	}

	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			client, err := NewClient(ctx, NewTokenSource("token"), tt.baseURL)
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			if got := GraphQLEndpoint(client); got != tt.want {
				t.Errorf("GraphQLEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewTokenSourceEmpty(t *testing.T) {
	if ts := NewTokenSource(""); ts != nil {
		t.Errorf("NewTokenSource(\"\") = %v, want nil", ts)
	}
}
