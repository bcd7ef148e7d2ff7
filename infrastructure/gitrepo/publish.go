package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"

	"github.com/devarsh10/javasync/domain"
)

// Publisher implements domain.Publisher on go-git.
type Publisher struct {
	opts Options
}

// NewPublisher creates a publisher sharing the syncer's options.
func NewPublisher(opts Options) *Publisher {
	return &Publisher{opts: opts}
}

// Publish stages filePath, commits it with the given message, and pushes
// the tracked branch. A push rejected as non-fast-forward surfaces as
// ErrPublishConflict so the orchestrator can re-sync and retry once; the
// local commit is discarded by that re-sync's hard reset, which is what
// keeps the retried attempt from producing a duplicate commit.
func (p *Publisher) Publish(ctx context.Context, handle *domain.WorkspaceHandle, filePath, message string) error {
	repo, err := git.PlainOpen(handle.Path)
	if err != nil {
		return fmt.Errorf("failed to open working copy %q: %w", handle.Path, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to read worktree status: %w", err)
	}
	if status.IsClean() {
		logger.Debugf("[publish] %s: worktree clean, nothing to commit", handle.URL)
		return nil
	}

	if _, addErr := worktree.Add(filePath); addErr != nil {
		return fmt.Errorf("failed to stage %q: %w", filePath, addErr)
	}

	commit, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.opts.AuthorName,
			Email: p.opts.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	logger.Infof("[publish] %s: committed %s", handle.URL, commit.String()[:8])

	opCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	pushErr := repo.PushContext(opCtx, &git.PushOptions{
		RemoteName: remoteName,
		Auth:       tokenAuth(p.opts.Token),
	})
	switch {
	case pushErr == nil, errors.Is(pushErr, git.NoErrAlreadyUpToDate):
		logger.Infof("[publish] %s: pushed %s", handle.URL, handle.Branch)
		return nil
	case isNonFastForward(pushErr):
		return fmt.Errorf("%w: %s", domain.ErrPublishConflict, pushErr)
	default:
		return classify(fmt.Errorf("failed to push %s: %w", handle.URL, pushErr))
	}
}

// isNonFastForward reports whether a push was rejected because the remote
// branch advanced since the last sync.
func isNonFastForward(err error) bool {
	if errors.Is(err, git.ErrForceNeeded) {
		return true
	}
	return strings.Contains(err.Error(), "non-fast-forward")
}
