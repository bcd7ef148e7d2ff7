// Package testdoubles provides test doubles (spies, stubs, dummies) for domain
// interfaces. These are hand-crafted implementations — no mock frameworks.
package testdoubles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/devarsh10/javasync/domain"
)

// ---------------------------------------------------------------------------
// SpySyncer
// ---------------------------------------------------------------------------

// SpySyncer implements domain.Syncer against plain temp directories. Every
// Sync call re-materializes the configured remote file tree into the
// workspace, which mirrors what the real syncer's fetch+hard-reset does:
// local edits from a previous pipeline pass are discarded.
//
// The recording fields are mutex-guarded because the orchestrator invokes
// collaborators from concurrent workers.
type SpySyncer struct {
	// Root is where per-repository workspace dirs are created.
	Root string

	// Files holds the remote tree per repository URL (relative path -> content).
	Files map[string]map[string]string

	// Errs maps a repository URL to the error its Sync should return.
	Errs map[string]error

	mu sync.Mutex

	// spy: URLs synced and handles cleaned, in call order
	SyncCalls    []string
	CleanupCalls []string
}

var _ domain.Syncer = (*SpySyncer)(nil)

func (s *SpySyncer) Sync(_ context.Context, entry domain.RepositoryEntry) (*domain.WorkspaceHandle, error) {
	s.mu.Lock()
	s.SyncCalls = append(s.SyncCalls, entry.URL)
	s.mu.Unlock()

	if err := s.Errs[entry.URL]; err != nil {
		return nil, err
	}

	dir := filepath.Join(s.Root, sanitize(entry.URL))
	for rel, content := range s.Files[entry.URL] {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &domain.WorkspaceHandle{Path: dir, URL: entry.URL, Branch: entry.Branch}, nil
}

func (s *SpySyncer) Cleanup(handle *domain.WorkspaceHandle) error {
	s.mu.Lock()
	s.CleanupCalls = append(s.CleanupCalls, handle.URL)
	s.mu.Unlock()
	return os.RemoveAll(handle.Path)
}

func sanitize(url string) string {
	out := make([]rune, 0, len(url))
	for _, r := range url {
		switch r {
		case '/', ':', '@':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// ---------------------------------------------------------------------------
// SpyPublisher
// ---------------------------------------------------------------------------

// PublishCall records the inputs of one Publish invocation plus the file
// content at the moment of the call, so tests can assert what would have
// been pushed.
type PublishCall struct {
	URL      string
	FilePath string
	Message  string
	Content  string
}

// SpyPublisher implements domain.Publisher. Errs is consumed one entry per
// call; once exhausted, calls succeed. That makes "conflict, then success"
// sequences trivial to script. Recording and Errs consumption are
// mutex-guarded for concurrent workers.
type SpyPublisher struct {
	Errs []error

	mu sync.Mutex

	// spy: inputs received
	Calls []PublishCall
}

var _ domain.Publisher = (*SpyPublisher)(nil)

func (p *SpyPublisher) Publish(_ context.Context, handle *domain.WorkspaceHandle, filePath, message string) error {
	content, _ := os.ReadFile(filepath.Join(handle.Path, filepath.FromSlash(filePath)))

	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, PublishCall{
		URL:      handle.URL,
		FilePath: filePath,
		Message:  message,
		Content:  string(content),
	})

	if len(p.Errs) == 0 {
		return nil
	}
	err := p.Errs[0]
	p.Errs = p.Errs[1:]
	return err
}

// ---------------------------------------------------------------------------
// StubBranchResolver
// ---------------------------------------------------------------------------

// StubBranchResolver implements domain.BranchResolver from a fixed map.
type StubBranchResolver struct {
	Branches map[string]string
	Err      error

	mu sync.Mutex

	// spy: URLs resolved
	Calls []string
}

var _ domain.BranchResolver = (*StubBranchResolver)(nil)

func (r *StubBranchResolver) DefaultBranch(_ context.Context, repoURL string) (string, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, repoURL)
	r.mu.Unlock()

	if r.Err != nil {
		return "", r.Err
	}
	branch, ok := r.Branches[repoURL]
	if !ok {
		return "", fmt.Errorf("unknown repository: %s", repoURL)
	}
	return branch, nil
}
