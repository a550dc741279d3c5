/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package prreconciler_test

import (
	"context"
	"fmt"

	"chainguard.dev/lockpr/internal/command"
	"chainguard.dev/lockpr/reconcilers/githubreconciler/ghcli"
	"chainguard.dev/lockpr/reconcilers/githubreconciler/gitcli"
	"chainguard.dev/lockpr/reconcilers/prreconciler"
)

func ExampleReconciler_Reconcile() {
	ctx := context.Background()

	// Stand in for git and gh; a real run uses command.Exec{}.
	runner := command.NewMock()
	runner.On("git", []string{"rev-parse"}, command.Response{Stdout: []byte("abc123def456\n")})
	runner.On("git", []string{"status"}, command.Response{Stdout: []byte("M  riotfile.lock\n")})
	runner.On("gh", []string{"pr", "list"}, command.Response{Stdout: []byte("[]")})

	checkout, err := gitcli.New(runner, ".")
	if err != nil {
		fmt.Println("error creating git backend:", err)
		return
	}
	host, err := ghcli.New(runner, ".", ghcli.WithRepository("DataDog/dd-trace-py"))
	if err != nil {
		fmt.Println("error creating gh backend:", err)
		return
	}

	r, err := prreconciler.New(prreconciler.WorkingCopyFunc[*gitcli.Lease](checkout.Lease), host,
		prreconciler.WithBranchPrefix("bot/update-"),
		prreconciler.WithTitlePrefix("chore: update-"),
		prreconciler.WithHashLength(7),
	)
	if err != nil {
		fmt.Println("error creating reconciler:", err)
		return
	}

	res, err := r.Reconcile(ctx, "main")
	if err != nil {
		fmt.Println("reconcile error:", err)
		return
	}

	fmt.Println(res.Action)
	fmt.Println(res.Names.Branch)
	fmt.Println(res.Plan)
	// Output:
	// dry_run
	// bot/update-abc123d
	// gh pr create --base main --head bot/update-abc123d --title 'chore: update-abc123d' --body '' --repo DataDog/dd-trace-py
}
