package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	logger "github.com/sirupsen/logrus"

	"github.com/devarsh10/javasync/domain"
)

const remoteName = "origin"

// Options configures the git infrastructure shared by syncer and publisher.
type Options struct {
	Workspace   string        // Root directory holding one working copy per repository
	Token       string        // Bearer token for HTTPS remotes; empty for anonymous access
	MaxRetries  int           // Attempts per network operation before giving up
	Backoff     time.Duration // Base delay between attempts, grows linearly
	Timeout     time.Duration // Per clone/fetch/push operation
	AuthorName  string
	AuthorEmail string
}

// Syncer implements domain.Syncer on go-git. Working copies live under
// Options.Workspace, one directory per repository, reused across runs.
type Syncer struct {
	opts Options
}

// NewSyncer creates a syncer rooted at the configured workspace directory.
func NewSyncer(opts Options) *Syncer {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Syncer{opts: opts}
}

// Sync clones the repository if no working copy exists, otherwise fetches
// and hard-resets the copy to the remote tip of entry.Branch. Auth and
// transport failures alike are retried with bounded backoff before being
// reported on the domain taxonomy.
func (s *Syncer) Sync(ctx context.Context, entry domain.RepositoryEntry) (*domain.WorkspaceHandle, error) {
	dir := filepath.Join(s.opts.Workspace, workspaceDirName(entry.URL))

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * s.opts.Backoff
			logger.Warnf("[sync] Retrying %s in %s (attempt %d/%d): %v",
				entry.URL, delay, attempt, s.opts.MaxRetries, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s", domain.ErrSyncUnavailable, ctx.Err())
			}
		}

		err := s.syncOnce(ctx, entry, dir)
		if err == nil {
			return &domain.WorkspaceHandle{Path: dir, URL: entry.URL, Branch: entry.Branch}, nil
		}

		lastErr = classify(err)
	}

	return nil, lastErr
}

// Cleanup removes the working copy directory.
func (s *Syncer) Cleanup(handle *domain.WorkspaceHandle) error {
	if handle == nil || handle.Path == "" {
		return nil
	}
	return os.RemoveAll(handle.Path)
}

func (s *Syncer) syncOnce(ctx context.Context, entry domain.RepositoryEntry, dir string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	repo, err := git.PlainOpen(dir)
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		return s.clone(opCtx, entry, dir)
	case err != nil:
		return fmt.Errorf("failed to open working copy %q: %w", dir, err)
	}

	return s.update(opCtx, repo, entry)
}

func (s *Syncer) clone(ctx context.Context, entry domain.RepositoryEntry, dir string) error {
	logger.Infof("[sync] Cloning %s (branch %s)", entry.URL, entry.Branch)

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           entry.URL,
		Auth:          s.auth(),
		ReferenceName: plumbing.NewBranchReferenceName(entry.Branch),
		SingleBranch:  true,
	})
	if err != nil {
		// A failed clone leaves a partial directory behind; remove it so
		// the next attempt starts from scratch.
		_ = os.RemoveAll(dir)
		return fmt.Errorf("failed to clone %s: %w", entry.URL, err)
	}
	return nil
}

func (s *Syncer) update(ctx context.Context, repo *git.Repository, entry domain.RepositoryEntry) error {
	logger.Infof("[sync] Updating existing working copy of %s", entry.URL)

	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		Auth:       s.auth(),
		Force:      true,
		Tags:       git.NoTags,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s: %w", entry.URL, err)
	}

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, entry.Branch), true)
	if err != nil {
		return fmt.Errorf("branch %q not found on remote %s: %w", entry.Branch, entry.URL, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	localRef := plumbing.NewBranchReferenceName(entry.Branch)
	checkout := &git.CheckoutOptions{Branch: localRef, Force: true}
	if _, refErr := repo.Reference(localRef, true); refErr != nil {
		checkout.Hash = remoteRef.Hash()
		checkout.Branch = localRef
		checkout.Create = true
	}
	if checkoutErr := worktree.Checkout(checkout); checkoutErr != nil {
		return fmt.Errorf("failed to checkout %q: %w", entry.Branch, checkoutErr)
	}

	// Discard any local drift; this workspace has no other writers.
	if resetErr := worktree.Reset(&git.ResetOptions{
		Mode:   git.HardReset,
		Commit: remoteRef.Hash(),
	}); resetErr != nil {
		return fmt.Errorf("failed to reset to %s: %w", remoteRef.Hash(), resetErr)
	}

	return nil
}

func (s *Syncer) auth() transport.AuthMethod {
	return tokenAuth(s.opts.Token)
}

// tokenAuth builds HTTP basic auth from a bearer token. GitHub and GitLab
// both accept the token as the password with any non-empty username.
func tokenAuth(token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "javasync", Password: token}
}

// classify maps transport errors onto the domain taxonomy so the
// orchestrator can tell a bad token from a bad network.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return fmt.Errorf("%w: %s", domain.ErrSyncAuthFailed, err)
	default:
		return fmt.Errorf("%w: %s", domain.ErrSyncUnavailable, err)
	}
}

// workspaceDirName keys the working copy by the repository's owner and
// name, not just the basename, so same-named repositories under different
// owners never share a directory:
// "https://github.com/org/service-a.git" -> "org/service-a".
func workspaceDirName(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	trimmed = strings.ReplaceAll(trimmed, ":", "/")
	segments := strings.Split(trimmed, "/")
	if len(segments) < 2 {
		return segments[0]
	}
	return filepath.Join(segments[len(segments)-2], segments[len(segments)-1])
}

// RepositoryName derives the display name from a remote URL:
// "https://github.com/org/service-a.git" -> "service-a".
func RepositoryName(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, ":"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return trimmed
}
