/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chainguard.dev/lockpr/reconcilers/prreconciler"
	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

// ErrRebaseUnsupported is returned by Lease.Rebase when the remote base has
// commits the leased branch does not contain.
var ErrRebaseUnsupported = errors.New("go-git cannot rebase onto a base branch that moved; use the git CLI backend")

// Manager owns a single checkout and leases it to one reconciliation at a
// time.
type Manager struct {
	path        string
	tokenSource oauth2.TokenSource
	identity    string
	signer      git.Signer

	mu     sync.Mutex
	repo   *git.Repository
	leased bool
}

// Lease is the checkout acquired for one reconciliation against a base
// branch.
type Lease struct {
	manager *Manager
	repo    *git.Repository

	base      plumbing.ReferenceName
	sha       plumbing.Hash
	committed plumbing.Hash
}

// New constructs a Manager for the checkout at path. A nil token source
// pushes without credentials, which suits local and file remotes. Identity is
// used as the commit author name (and, when it lacks a domain, suffixed with
// @users.noreply.github.com). The signer may be nil when commits need not be
// signed.
func New(_ context.Context, path string, tokenSource oauth2.TokenSource, identity string, signer git.Signer) (*Manager, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, errors.New("identity cannot be empty")
	}

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repo at %s: %w", path, err)
	}

	return &Manager{
		path:        path,
		tokenSource: tokenSource,
		identity:    identity,
		signer:      signer,
		repo:        repo,
	}, nil
}

// Lease resolves the local base branch and returns a Lease handle. Callers
// must invoke Return to check the base branch back out and release the
// checkout.
func (m *Manager) Lease(ctx context.Context, base string) (*Lease, error) {
	if base == "" {
		return nil, errors.New("base cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.leased {
		return nil, fmt.Errorf("checkout at %s is already leased", m.path)
	}

	refName := plumbing.NewBranchReferenceName(base)
	ref, err := m.repo.Reference(refName, true)
	if err != nil {
		return nil, fmt.Errorf("resolving branch %s: %w", base, err)
	}

	m.leased = true
	clog.FromContext(ctx).Debugf("Leased %s at %s in %s", base, ref.Hash(), m.path)
	return &Lease{manager: m, repo: m.repo, base: refName, sha: ref.Hash()}, nil
}

// SHA returns the base commit observed when the lease was taken.
func (l *Lease) SHA() string {
	return l.sha.String()
}

// Commit points branch at HEAD and switches to it without touching the
// working tree, then stages and commits every pending change. Returns
// prreconciler.ErrNothingToCommit when nothing differs from HEAD.
func (l *Lease) Commit(ctx context.Context, branch, message string) error {
	if branch == "" {
		return errors.New("branch name cannot be empty")
	}
	if message == "" {
		return errors.New("commit message cannot be empty")
	}

	head, err := l.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}

	refName := plumbing.NewBranchReferenceName(branch)
	if err := l.repo.Storer.SetReference(plumbing.NewHashReference(refName, head.Hash())); err != nil {
		return fmt.Errorf("setting branch reference: %w", err)
	}
	if err := l.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, refName)); err != nil {
		return fmt.Errorf("switching HEAD to %s: %w", branch, err)
	}

	worktree, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("staging changes: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("getting worktree status: %w", err)
	}
	if status.IsClean() {
		return prreconciler.ErrNothingToCommit
	}

	hash, err := l.manager.commitChanges(worktree, message)
	if err != nil {
		return err
	}
	l.committed = hash
	clog.FromContext(ctx).Infof("Committed %s on %s", hash, branch)
	return nil
}

func (m *Manager) commitChanges(worktree *git.Worktree, message string) (plumbing.Hash, error) {
	email := m.identity
	if !strings.Contains(email, "@") {
		email = fmt.Sprintf("%s@users.noreply.github.com", email)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  m.identity,
			Email: email,
			When:  time.Now(),
		},
		Signer: m.signer,
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("committing: %w", err)
	}
	return hash, nil
}

// Rebase fetches base from remote. When the fetched tip is already an
// ancestor of the committed branch there is nothing to replay; otherwise it
// returns ErrRebaseUnsupported.
func (l *Lease) Rebase(ctx context.Context, remote, base string) error {
	if l.committed.IsZero() {
		return errors.New("nothing committed to rebase")
	}

	auth, err := l.manager.authForRemote()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	remoteRef := plumbing.NewRemoteReferenceName(remote, base)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s", plumbing.NewBranchReferenceName(base), remoteRef))

	clog.FromContext(ctx).Infof("Fetching %s from %s", base, remote)
	if err := l.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Auth:       auth,
	}); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetching %s from %s: %w", base, remote, err)
	}

	ref, err := l.repo.Reference(remoteRef, true)
	if err != nil {
		return fmt.Errorf("getting remote ref %s: %w", remoteRef, err)
	}

	upstream, err := l.repo.CommitObject(ref.Hash())
	if err != nil {
		return fmt.Errorf("getting commit %s: %w", ref.Hash(), err)
	}
	tip, err := l.repo.CommitObject(l.committed)
	if err != nil {
		return fmt.Errorf("getting commit %s: %w", l.committed, err)
	}

	contained, err := upstream.IsAncestor(tip)
	if err != nil {
		return fmt.Errorf("comparing %s with %s: %w", ref.Hash(), l.committed, err)
	}
	if !contained {
		return fmt.Errorf("%s/%s is at %s: %w", remote, base, ref.Hash(), ErrRebaseUnsupported)
	}
	return nil
}

// Push force pushes branch to remote.
func (l *Lease) Push(ctx context.Context, remote, branch string) error {
	log := clog.FromContext(ctx)

	auth, err := l.manager.authForRemote()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	ref := plumbing.NewBranchReferenceName(branch)
	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	log.Infof("Force pushing %s to %s", refSpec, remote)

	if err := l.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		Auth:       auth,
		Force:      true,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			log.Infof("Branch already up to date")
			return nil
		}
		return fmt.Errorf("force pushing: %w", err)
	}
	return nil
}

// Return checks the base branch back out and releases the checkout. When no
// commit was made HEAD is only repointed so pending changes stay in the
// working tree. Once Return is called the lease should be considered invalid.
func (l *Lease) Return(ctx context.Context) error {
	m := l.manager
	if m == nil {
		return errors.New("lease already returned")
	}
	defer func() {
		m.mu.Lock()
		m.leased = false
		m.mu.Unlock()
		l.manager = nil
	}()

	head, err := l.repo.Head()
	if err != nil {
		return fmt.Errorf("resolving HEAD: %w", err)
	}

	if head.Hash() == l.sha {
		if err := l.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, l.base)); err != nil {
			return fmt.Errorf("checking out %s: %w", l.base.Short(), err)
		}
		return nil
	}

	worktree, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: l.base}); err != nil {
		return fmt.Errorf("checking out %s: %w", l.base.Short(), err)
	}
	clog.FromContext(ctx).Debugf("Returned checkout to %s", l.base.Short())
	return nil
}

func (m *Manager) authForRemote() (transport.AuthMethod, error) {
	if m.tokenSource == nil {
		return nil, nil
	}

	token, err := m.tokenSource.Token()
	if err != nil {
		return nil, err
	}

	return &githttp.BasicAuth{
		Username: "unused-when-using-access-tokens",
		Password: token.AccessToken,
	}, nil
}

var _ prreconciler.Lease = (*Lease)(nil)
