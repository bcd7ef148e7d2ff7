package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devarsh10/javasync/domain"
)

// Well-known paths inside a working copy.
const (
	gradleDescriptor       = "build.gradle"
	gradleKotlinDescriptor = "build.gradle.kts"
	ciConfigPath           = ".circleci/config.yml"
)

// UpdateService orchestrates the full run: for every repository entry it
// drives the sync -> detect -> select -> rewrite -> publish pipeline to a
// terminal state and accumulates one RunResult per entry. A failure in one
// repository never aborts the others.
type UpdateService struct {
	templates *domain.TemplateSet
	syncer    domain.Syncer
	publisher domain.Publisher
	resolver  domain.BranchResolver
}

// NewUpdateService creates a new service from its collaborators.
func NewUpdateService(
	templates *domain.TemplateSet,
	syncer domain.Syncer,
	publisher domain.Publisher,
	resolver domain.BranchResolver,
) *UpdateService {
	return &UpdateService{
		templates: templates,
		syncer:    syncer,
		publisher: publisher,
		resolver:  resolver,
	}
}

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	DryRun         bool
	Verbose        bool
	Workers        int  // Concurrent pipelines; values below 1 mean sequential
	CleanWorkspace bool // Remove each working copy after its pipeline finishes
}

// Run processes every entry and returns one result per entry, in input
// order. Pipelines run concurrently up to opts.Workers; results travel
// back over a channel so no worker ever touches shared state.
func (s *UpdateService) Run(
	ctx context.Context,
	entries []domain.RepositoryEntry,
	opts RunOptions,
) []domain.RunResult {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	type indexed struct {
		idx    int
		result domain.RunResult
	}

	out := make(chan indexed, len(entries))

	var group errgroup.Group
	group.SetLimit(workers)
	for i, entry := range entries {
		i, entry := i, entry
		group.Go(func() error {
			out <- indexed{idx: i, result: s.processRepository(ctx, entry, opts)}
			return nil
		})
	}
	_ = group.Wait()
	close(out)

	results := make([]domain.RunResult, len(entries))
	for r := range out {
		results[r.idx] = r.result
	}
	return results
}

// pipeline tracks one repository's walk through the state machine.
type pipeline struct {
	entry  domain.RepositoryEntry
	state  domain.State
	handle *domain.WorkspaceHandle
}

func (s *UpdateService) transition(p *pipeline, next domain.State) {
	logger.Debugf("[orchestrator] %s: %s -> %s", p.entry.URL, p.state, next)
	p.state = next
}

// processRepository drives one entry to a terminal state. Every exit path
// produces exactly one RunResult.
func (s *UpdateService) processRepository(
	ctx context.Context,
	entry domain.RepositoryEntry,
	opts RunOptions,
) domain.RunResult {
	logger.Infof("[orchestrator] Processing %s (branch %q)", entry.URL, entry.Branch)

	p := &pipeline{entry: entry, state: domain.StatePending}

	if entry.Branch == "" {
		branch, err := s.resolveBranch(ctx, entry.URL)
		if err != nil {
			return s.failed(p, fmt.Errorf("failed to resolve default branch: %w", err))
		}
		logger.Infof("[orchestrator] %s: resolved default branch %q", entry.URL, branch)
		p.entry.Branch = branch
	}

	defer func() {
		if opts.CleanWorkspace && p.handle != nil {
			if err := s.syncer.Cleanup(p.handle); err != nil {
				logger.Warnf("[orchestrator] %s: failed to clean workspace: %v", entry.URL, err)
			}
		}
	}()

	result := s.runPipeline(ctx, p, opts, true)
	logger.Infof("[orchestrator] %s: %s (%s)", entry.URL, result.Status, result.Reason)
	return result
}

// runPipeline executes sync through publish. A publish conflict triggers
// one complete re-run (allowRetry=false on the second pass): the re-sync's
// hard reset drops the unpushed commit, so the retried attempt produces a
// single fresh commit rather than a duplicate.
func (s *UpdateService) runPipeline(
	ctx context.Context,
	p *pipeline,
	opts RunOptions,
	allowRetry bool,
) domain.RunResult {
	s.transition(p, domain.StateSyncing)
	handle, err := s.syncer.Sync(ctx, p.entry)
	if err != nil {
		return s.failed(p, err)
	}
	p.handle = handle

	s.transition(p, domain.StateDetecting)
	version, err := s.detectVersion(handle)
	if err != nil {
		return s.skippedOrFailed(p, err)
	}
	logger.Infof("[orchestrator] %s: detected Java %d", p.entry.URL, version)

	s.transition(p, domain.StateSelecting)
	choice, err := domain.SelectTemplate(version)
	if err != nil {
		return s.skippedOrFailed(p, err)
	}
	logger.Infof("[orchestrator] %s: selected %s template", p.entry.URL, choice)

	s.transition(p, domain.StateRewriting)
	changed, err := s.rewrite(handle, choice, opts.DryRun)
	if err != nil {
		return s.failed(p, err)
	}
	if !changed {
		s.transition(p, domain.StateDone)
		return s.result(p, domain.StatusUnchanged, "image already up to date", version, choice)
	}
	if opts.DryRun {
		s.transition(p, domain.StateDone)
		return s.result(p, domain.StatusUpdated, "dry-run, nothing pushed", version, choice)
	}

	s.transition(p, domain.StatePublishing)
	message := commitMessage(version, choice)
	if publishErr := s.publisher.Publish(ctx, handle, ciConfigPath, message); publishErr != nil {
		if errors.Is(publishErr, domain.ErrPublishConflict) && allowRetry {
			logger.Warnf("[orchestrator] %s: remote advanced during publish, retrying once", p.entry.URL)
			return s.runPipeline(ctx, p, opts, false)
		}
		return s.failed(p, publishErr)
	}

	s.transition(p, domain.StateDone)
	return s.result(p, domain.StatusUpdated, "", version, choice)
}

// detectVersion reads the build descriptor and extracts the Java level.
// A repository without any descriptor counts as undetectable, not broken;
// a descriptor that exists but cannot be read fails the entry.
func (s *UpdateService) detectVersion(handle *domain.WorkspaceHandle) (int, error) {
	for _, name := range []string{gradleDescriptor, gradleKotlinDescriptor} {
		data, err := os.ReadFile(filepath.Join(handle.Path, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return domain.DetectJavaVersion(string(data))
	}
	return 0, fmt.Errorf("%w: no build descriptor found", domain.ErrVersionNotDetected)
}

// rewrite updates the CI config in the working copy and reports whether
// the content changed. A missing CI config is created from the master
// template, mirroring how the repositories were onboarded originally.
// In dry-run mode nothing is written.
func (s *UpdateService) rewrite(
	handle *domain.WorkspaceHandle,
	choice domain.TemplateChoice,
	dryRun bool,
) (bool, error) {
	image, err := s.templates.ImageFor(choice)
	if err != nil {
		return false, err
	}

	target := filepath.Join(handle.Path, filepath.FromSlash(ciConfigPath))

	var rewritten string
	current, readErr := os.ReadFile(target)
	switch {
	case readErr == nil:
		rewritten, err = domain.RewriteImage(string(current), image)
		if err != nil {
			return false, err
		}
		if rewritten == string(current) {
			return false, nil
		}
	case os.IsNotExist(readErr):
		rewritten, err = s.templates.Render(choice)
		if err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("failed to read %q: %w", target, readErr)
	}

	if dryRun {
		logger.Infof("[orchestrator] %s: [DRY RUN] would set image to %s", handle.URL, image)
		return true, nil
	}

	if mkErr := os.MkdirAll(filepath.Dir(target), 0o755); mkErr != nil {
		return false, fmt.Errorf("failed to create %q: %w", filepath.Dir(target), mkErr)
	}
	if writeErr := os.WriteFile(target, []byte(rewritten), 0o644); writeErr != nil {
		return false, fmt.Errorf("failed to write %q: %w", target, writeErr)
	}
	return true, nil
}

func (s *UpdateService) resolveBranch(ctx context.Context, url string) (string, error) {
	if s.resolver == nil {
		return "", errors.New("no branch given and no provider client configured")
	}
	return s.resolver.DefaultBranch(ctx, url)
}

func (s *UpdateService) skippedOrFailed(p *pipeline, err error) domain.RunResult {
	if errors.Is(err, domain.ErrVersionNotDetected) || errors.Is(err, domain.ErrUnsupportedVersion) {
		s.transition(p, domain.StateSkipped)
		return s.result(p, domain.StatusSkipped, reasonFor(err), 0, "")
	}
	return s.failed(p, err)
}

func (s *UpdateService) failed(p *pipeline, err error) domain.RunResult {
	logger.Errorf("[orchestrator] %s: %v", p.entry.URL, err)
	s.transition(p, domain.StateFailed)
	return s.result(p, domain.StatusFailed, reasonFor(err), 0, "")
}

func (s *UpdateService) result(
	p *pipeline,
	status domain.Status,
	reason string,
	version int,
	choice domain.TemplateChoice,
) domain.RunResult {
	return domain.RunResult{
		Repository:  p.entry.URL,
		Branch:      p.entry.Branch,
		Status:      status,
		Reason:      reason,
		JavaVersion: version,
		Template:    choice,
	}
}

// reasonFor maps a pipeline error to its canonical taxonomy name, keeping
// the per-repository report grep-able.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrVersionNotDetected):
		return "VersionNotDetected"
	case errors.Is(err, domain.ErrUnsupportedVersion):
		return "UnsupportedVersion"
	case errors.Is(err, domain.ErrRewriteTargetMissing):
		return "RewriteTargetMissing"
	case errors.Is(err, domain.ErrSyncAuthFailed):
		return "SyncAuthFailed: check the configured token"
	case errors.Is(err, domain.ErrSyncUnavailable):
		return "SyncUnavailable: " + err.Error()
	case errors.Is(err, domain.ErrPublishConflict):
		return "PublishConflict"
	default:
		return err.Error()
	}
}

// commitMessage is the fixed, descriptive message identifying the tool and
// the version/template mapping it applied.
func commitMessage(version int, choice domain.TemplateChoice) string {
	return fmt.Sprintf("chore(ci): javasync set CircleCI image for Java %d (%s template)", version, choice)
}
