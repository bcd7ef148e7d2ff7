package domain

import "context"

// WorkspaceHandle points at the local working copy backing one repository
// entry. It is owned by the syncer for the duration of that entry's
// pipeline; concurrent pipelines never share a handle.
type WorkspaceHandle struct {
	Path   string // Working-copy root on the local filesystem
	URL    string // Remote the copy tracks
	Branch string // Checked-out branch
}

// Syncer brings a local working copy in line with its remote: clone when
// absent, otherwise fetch and hard-reset to the remote tracking branch.
// This tool is the only expected writer in the workspace, so local drift
// is discarded without ceremony.
type Syncer interface {
	// Sync returns a handle whose tree matches the remote tip of
	// entry.Branch. Auth failures surface as ErrSyncAuthFailed and
	// transport failures as ErrSyncUnavailable, both after bounded retries.
	Sync(ctx context.Context, entry RepositoryEntry) (*WorkspaceHandle, error)

	// Cleanup releases the working copy when the configuration asks for a
	// fresh clone per run.
	Cleanup(handle *WorkspaceHandle) error
}

// Publisher stages, commits, and pushes one rewritten file from a working
// copy. A push rejected because the remote advanced surfaces as
// ErrPublishConflict; the caller decides whether to retry the whole
// sync-rewrite-publish sequence. Never force-pushes.
type Publisher interface {
	Publish(ctx context.Context, handle *WorkspaceHandle, filePath, message string) error
}

// BranchResolver looks up a repository's default branch through the
// hosting provider's API, for list entries that omit the branch column.
type BranchResolver interface {
	DefaultBranch(ctx context.Context, repoURL string) (string, error)
}
