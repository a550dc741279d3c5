/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// config is layered: defaults, then the optional YAML file, then the
// environment. Every env field overwrites what the file set.
type config struct {
	BaseBranch    string `yaml:"base_branch" env:"BASE_BRANCH,overwrite,default=main"`
	BranchPrefix  string `yaml:"branch_prefix" env:"BRANCH_PREFIX,overwrite,default=lockpr/recompile-"`
	TitlePrefix   string `yaml:"title_prefix" env:"TITLE_PREFIX,overwrite,default=chore(deps): recompile-"`
	Body          string `yaml:"body" env:"PR_BODY,overwrite"`
	CommitMessage string `yaml:"commit_message" env:"COMMIT_MESSAGE,overwrite,default=Recompile dependency lock files"`
	CommitAuthor  string `yaml:"commit_author" env:"COMMIT_AUTHOR,overwrite,default=lockpr-bot"`
	Remote        string `yaml:"remote" env:"GIT_REMOTE,overwrite,default=origin"`

	HashLength      int      `yaml:"hash_length" env:"HASH_LENGTH,overwrite"`
	ExactTitleMatch bool     `yaml:"exact_title_match" env:"EXACT_TITLE_MATCH,overwrite"`
	Labels          []string `yaml:"labels" env:"PR_LABELS,overwrite"`
	Draft           bool     `yaml:"draft" env:"PR_DRAFT,overwrite"`

	Repository string `yaml:"repository" env:"GITHUB_REPOSITORY,overwrite"`
	APIURL     string `yaml:"api_url" env:"GITHUB_API_URL,overwrite"`
	// Token is never read from the file.
	Token string `yaml:"-" env:"GITHUB_TOKEN,overwrite"`

	PushgatewayURL string `yaml:"pushgateway_url" env:"PUSHGATEWAY_URL,overwrite"`
}

func loadConfig(ctx context.Context, path string, lookuper envconfig.Lookuper) (*config, error) {
	var cfg config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}

	if cfg.HashLength < 0 {
		return nil, fmt.Errorf("hash length must not be negative, got %d", cfg.HashLength)
	}
	return &cfg, nil
}

// githubAPIURL returns the configured API root, or "" for public GitHub.
// Actions always sets GITHUB_API_URL, including on github.com.
func (c *config) githubAPIURL() string {
	u := strings.TrimSuffix(c.APIURL, "/")
	if u == "https://api.github.com" {
		return ""
	}
	return u
}

// parseDryRun interprets the optional positional argument: "1" (the
// default) keeps the run side effect free and "0" enables pushing and
// creation.
func parseDryRun(args []string) (bool, error) {
	switch {
	case len(args) == 0:
		return true, nil
	case len(args) > 1:
		return false, fmt.Errorf("expected at most one argument, got %d", len(args))
	}

	switch args[0] {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("dry_run must be 0 or 1, got %q", args[0])
	}
}
