/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command lockpr proposes recompiled dependency lock files as a pull
// request against the current commit of a base branch.
//
// Usage:
//
//	lockpr [flags] [dry_run]
//
// dry_run defaults to 1, which commits locally and reports the pull request
// that would be opened without pushing or creating anything. Pass 0 to push
// and create.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chainguard.dev/lockpr/internal/command"
	"chainguard.dev/lockpr/reconcilers/githubreconciler"
	"chainguard.dev/lockpr/reconcilers/githubreconciler/changemanager"
	"chainguard.dev/lockpr/reconcilers/githubreconciler/clonemanager"
	"chainguard.dev/lockpr/reconcilers/githubreconciler/ghcli"
	"chainguard.dev/lockpr/reconcilers/githubreconciler/gitcli"
	"chainguard.dev/lockpr/reconcilers/prreconciler"
	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/pflag"
)

const jobName = "lockpr"

type flags struct {
	config      string
	dir         string
	gitBackend  string
	hostBackend string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], envconfig.OsLookuper(), os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		clog.FatalContextf(ctx, "lockpr: %v", err)
	}
}

func run(ctx context.Context, args []string, lookuper envconfig.Lookuper, stdout io.Writer) error {
	var f flags
	flagSet := pflag.NewFlagSet("lockpr", pflag.ContinueOnError)
	flagSet.StringVar(&f.config, "config", "", "path to a YAML config file; environment variables take precedence")
	flagSet.StringVar(&f.dir, "dir", ".", "checkout holding the recompiled lock files")
	flagSet.StringVar(&f.gitBackend, "git-backend", "cli", "working copy backend: cli (git binary) or gogit")
	flagSet.StringVar(&f.hostBackend, "host-backend", "gh", "pull request backend: gh (gh CLI) or api (GitHub API)")
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Usage: lockpr [flags] [dry_run]\n\n")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	dryRun, err := parseDryRun(flagSet.Args())
	if err != nil {
		flagSet.Usage()
		return err
	}

	cfg, err := loadConfig(ctx, f.config, lookuper)
	if err != nil {
		return err
	}

	r, err := newReconciler(ctx, cfg, f, dryRun)
	if err != nil {
		return err
	}

	clog.InfoContextf(ctx, "Reconciling lock file pull request against %s (dry run: %t)", cfg.BaseBranch, dryRun)
	res, rerr := r.Reconcile(ctx, cfg.BaseBranch)

	if cfg.PushgatewayURL != "" {
		if err := push.New(cfg.PushgatewayURL, jobName).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
			clog.WarnContextf(ctx, "Failed to push metrics to %s: %v", cfg.PushgatewayURL, err)
		}
	}

	if rerr != nil {
		return rerr
	}
	return writeSummary(stdout, res, dryRun)
}

func newReconciler(ctx context.Context, cfg *config, f flags, dryRun bool) (*prreconciler.Reconciler, error) {
	wc, err := newWorkingCopy(ctx, cfg, f)
	if err != nil {
		return nil, err
	}
	prs, err := newPullRequests(ctx, cfg, f)
	if err != nil {
		return nil, err
	}

	return prreconciler.New(wc, prs,
		prreconciler.WithBranchPrefix(cfg.BranchPrefix),
		prreconciler.WithTitlePrefix(cfg.TitlePrefix),
		prreconciler.WithBody(cfg.Body),
		prreconciler.WithCommitMessage(cfg.CommitMessage),
		prreconciler.WithRemote(cfg.Remote),
		prreconciler.WithRepository(cfg.Repository),
		prreconciler.WithHashLength(cfg.HashLength),
		prreconciler.WithExactTitleMatch(cfg.ExactTitleMatch),
		prreconciler.WithLabels(cfg.Labels...),
		prreconciler.WithDraft(cfg.Draft),
		prreconciler.WithDryRun(dryRun),
	)
}

func newWorkingCopy(ctx context.Context, cfg *config, f flags) (prreconciler.WorkingCopy, error) {
	switch f.gitBackend {
	case "cli":
		mgr, err := gitcli.New(command.Exec{}, f.dir)
		if err != nil {
			return nil, fmt.Errorf("creating git backend: %w", err)
		}
		return prreconciler.WorkingCopyFunc[*gitcli.Lease](mgr.Lease), nil

	case "gogit":
		mgr, err := clonemanager.New(ctx, f.dir, githubreconciler.NewTokenSource(cfg.Token), cfg.CommitAuthor, nil)
		if err != nil {
			return nil, fmt.Errorf("creating go-git backend: %w", err)
		}
		return prreconciler.WorkingCopyFunc[*clonemanager.Lease](mgr.Lease), nil

	default:
		return nil, fmt.Errorf("unknown git backend %q, want cli or gogit", f.gitBackend)
	}
}

func newPullRequests(ctx context.Context, cfg *config, f flags) (prreconciler.PullRequests, error) {
	switch f.hostBackend {
	case "gh":
		c, err := ghcli.New(command.Exec{}, f.dir, ghcli.WithRepository(cfg.Repository))
		if err != nil {
			return nil, fmt.Errorf("creating gh backend: %w", err)
		}
		return c, nil

	case "api":
		res, err := githubreconciler.ParseResource(cfg.Repository)
		if err != nil {
			return nil, fmt.Errorf("api backend needs GITHUB_REPOSITORY: %w", err)
		}
		client, err := githubreconciler.NewClient(ctx, githubreconciler.NewTokenSource(cfg.Token), cfg.githubAPIURL())
		if err != nil {
			return nil, err
		}
		cm, err := changemanager.New(client, res)
		if err != nil {
			return nil, fmt.Errorf("creating api backend: %w", err)
		}
		return cm, nil

	default:
		return nil, fmt.Errorf("unknown host backend %q, want gh or api", f.hostBackend)
	}
}
