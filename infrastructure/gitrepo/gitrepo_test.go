package gitrepo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devarsh10/javasync/domain"
	"github.com/devarsh10/javasync/infrastructure/gitrepo"
)

const testBranch = "master"

func testOptions(t *testing.T) gitrepo.Options {
	t.Helper()
	return gitrepo.Options{
		Workspace:   filepath.Join(t.TempDir(), "workspace"),
		MaxRetries:  2,
		Backoff:     10 * time.Millisecond,
		Timeout:     30 * time.Second,
		AuthorName:  "javasync",
		AuthorEmail: "javasync@example.invalid",
	}
}

// newUpstream creates a bare repository seeded with one commit containing
// the given files, standing in for the hosted remote.
func newUpstream(t *testing.T, files map[string]string) string {
	t.Helper()

	bareDir := filepath.Join(t.TempDir(), "upstream.git")
	_, err := git.PlainInit(bareDir, true)
	require.NoError(t, err)

	seedDir := filepath.Join(t.TempDir(), "seed")
	seed, err := git.PlainInit(seedDir, false)
	require.NoError(t, err)

	_, err = seed.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{bareDir},
	})
	require.NoError(t, err)

	commitFiles(t, seed, seedDir, files, "initial import")
	require.NoError(t, seed.Push(&git.PushOptions{RemoteName: "origin"}))

	return bareDir
}

// cloneUpstream makes an independent writer clone, used to advance the
// remote behind the syncer's back.
func cloneUpstream(t *testing.T, upstream string) (*git.Repository, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "writer")
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: upstream})
	require.NoError(t, err)
	return repo, dir
}

func commitFiles(t *testing.T, repo *git.Repository, dir string, files map[string]string, message string) plumbing.Hash {
	t.Helper()

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err = worktree.Add(name)
		require.NoError(t, err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "fixture", Email: "fixture@example.invalid", When: time.Now()},
	})
	require.NoError(t, err)
	return hash
}

func remoteHead(t *testing.T, upstream string) *object.Commit {
	t.Helper()

	repo, err := git.PlainOpen(upstream)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(testBranch), true)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	return commit
}

func TestSyncer_Sync(t *testing.T) {
	t.Parallel()

	t.Run("should clone when no working copy exists", func(t *testing.T) {
		t.Parallel()

		// given
		upstream := newUpstream(t, map[string]string{"build.gradle": "sourceCompatibility = 17\n"})
		syncer := gitrepo.NewSyncer(testOptions(t))

		// when
		handle, err := syncer.Sync(context.Background(), domain.RepositoryEntry{URL: upstream, Branch: testBranch})

		// then
		require.NoError(t, err)
		content, readErr := os.ReadFile(filepath.Join(handle.Path, "build.gradle"))
		require.NoError(t, readErr)
		assert.Equal(t, "sourceCompatibility = 17\n", string(content))
	})

	t.Run("should fetch and hard-reset an existing working copy", func(t *testing.T) {
		t.Parallel()

		// given
		upstream := newUpstream(t, map[string]string{"build.gradle": "sourceCompatibility = 11\n"})
		syncer := gitrepo.NewSyncer(testOptions(t))
		entry := domain.RepositoryEntry{URL: upstream, Branch: testBranch}

		handle, err := syncer.Sync(context.Background(), entry)
		require.NoError(t, err)

		// local drift that must be discarded
		require.NoError(t, os.WriteFile(filepath.Join(handle.Path, "build.gradle"), []byte("garbage"), 0o644))

		// remote advances
		writer, writerDir := cloneUpstream(t, upstream)
		commitFiles(t, writer, writerDir, map[string]string{"build.gradle": "sourceCompatibility = 17\n"}, "bump java")
		require.NoError(t, writer.Push(&git.PushOptions{}))

		// when
		handle, err = syncer.Sync(context.Background(), entry)

		// then
		require.NoError(t, err)
		content, readErr := os.ReadFile(filepath.Join(handle.Path, "build.gradle"))
		require.NoError(t, readErr)
		assert.Equal(t, "sourceCompatibility = 17\n", string(content))
	})

	t.Run("should keep same-named repositories in separate working copies", func(t *testing.T) {
		t.Parallel()

		// given: two upstreams whose URLs share the same basename
		upstreamA := newUpstream(t, map[string]string{"build.gradle": "sourceCompatibility = 17\n"})
		upstreamB := newUpstream(t, map[string]string{"build.gradle": "sourceCompatibility = 8\n"})
		syncer := gitrepo.NewSyncer(testOptions(t))

		// when
		handleA, errA := syncer.Sync(context.Background(), domain.RepositoryEntry{URL: upstreamA, Branch: testBranch})
		handleB, errB := syncer.Sync(context.Background(), domain.RepositoryEntry{URL: upstreamB, Branch: testBranch})

		// then
		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.NotEqual(t, handleA.Path, handleB.Path)

		contentA, err := os.ReadFile(filepath.Join(handleA.Path, "build.gradle"))
		require.NoError(t, err)
		assert.Equal(t, "sourceCompatibility = 17\n", string(contentA))
		contentB, err := os.ReadFile(filepath.Join(handleB.Path, "build.gradle"))
		require.NoError(t, err)
		assert.Equal(t, "sourceCompatibility = 8\n", string(contentB))
	})

	t.Run("should retry an auth failure before giving up", func(t *testing.T) {
		t.Parallel()

		// given: a remote that rejects every request
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		opts := testOptions(t)
		syncer := gitrepo.NewSyncer(opts)
		entry := domain.RepositoryEntry{URL: server.URL + "/org/private.git", Branch: testBranch}

		// when
		_, err := syncer.Sync(context.Background(), entry)

		// then
		require.ErrorIs(t, err, domain.ErrSyncAuthFailed)
		assert.EqualValues(t, opts.MaxRetries, requests.Load())
	})

	t.Run("should report an unreachable remote as unavailable", func(t *testing.T) {
		t.Parallel()

		// given
		syncer := gitrepo.NewSyncer(testOptions(t))
		entry := domain.RepositoryEntry{
			URL:    filepath.Join(t.TempDir(), "does-not-exist.git"),
			Branch: testBranch,
		}

		// when
		_, err := syncer.Sync(context.Background(), entry)

		// then
		require.ErrorIs(t, err, domain.ErrSyncUnavailable)
	})
}

func TestSyncer_Cleanup(t *testing.T) {
	t.Parallel()

	t.Run("should remove the working copy", func(t *testing.T) {
		t.Parallel()

		// given
		upstream := newUpstream(t, map[string]string{"build.gradle": "sourceCompatibility = 17\n"})
		syncer := gitrepo.NewSyncer(testOptions(t))
		handle, err := syncer.Sync(context.Background(), domain.RepositoryEntry{URL: upstream, Branch: testBranch})
		require.NoError(t, err)

		// when
		err = syncer.Cleanup(handle)

		// then
		require.NoError(t, err)
		_, statErr := os.Stat(handle.Path)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	t.Run("should commit and push the rewritten file", func(t *testing.T) {
		t.Parallel()

		// given
		upstream := newUpstream(t, map[string]string{
			".circleci/config.yml": "      - image: old:1\n",
		})
		opts := testOptions(t)
		syncer := gitrepo.NewSyncer(opts)
		publisher := gitrepo.NewPublisher(opts)

		handle, err := syncer.Sync(context.Background(), domain.RepositoryEntry{URL: upstream, Branch: testBranch})
		require.NoError(t, err)

		ciPath := filepath.Join(handle.Path, ".circleci", "config.yml")
		require.NoError(t, os.WriteFile(ciPath, []byte("      - image: new:2\n"), 0o644))

		// when
		err = publisher.Publish(context.Background(), handle, ".circleci/config.yml", "chore(ci): update build image")

		// then
		require.NoError(t, err)
		head := remoteHead(t, upstream)
		assert.Equal(t, "chore(ci): update build image", head.Message)
		assert.Equal(t, "javasync", head.Author.Name)
	})

	t.Run("should not commit when the worktree is clean", func(t *testing.T) {
		t.Parallel()

		// given
		upstream := newUpstream(t, map[string]string{
			".circleci/config.yml": "      - image: current:1\n",
		})
		opts := testOptions(t)
		syncer := gitrepo.NewSyncer(opts)
		publisher := gitrepo.NewPublisher(opts)

		handle, err := syncer.Sync(context.Background(), domain.RepositoryEntry{URL: upstream, Branch: testBranch})
		require.NoError(t, err)
		before := remoteHead(t, upstream).Hash

		// when
		err = publisher.Publish(context.Background(), handle, ".circleci/config.yml", "chore(ci): update build image")

		// then
		require.NoError(t, err)
		assert.Equal(t, before, remoteHead(t, upstream).Hash)
	})

	t.Run("should report a conflict when the remote advanced", func(t *testing.T) {
		t.Parallel()

		// given
		upstream := newUpstream(t, map[string]string{
			".circleci/config.yml": "      - image: old:1\n",
		})
		opts := testOptions(t)
		syncer := gitrepo.NewSyncer(opts)
		publisher := gitrepo.NewPublisher(opts)

		handle, err := syncer.Sync(context.Background(), domain.RepositoryEntry{URL: upstream, Branch: testBranch})
		require.NoError(t, err)

		// remote advances after our sync
		writer, writerDir := cloneUpstream(t, upstream)
		commitFiles(t, writer, writerDir, map[string]string{"README.md": "hello\n"}, "unrelated change")
		require.NoError(t, writer.Push(&git.PushOptions{}))

		ciPath := filepath.Join(handle.Path, ".circleci", "config.yml")
		require.NoError(t, os.WriteFile(ciPath, []byte("      - image: new:2\n"), 0o644))

		// when
		err = publisher.Publish(context.Background(), handle, ".circleci/config.yml", "chore(ci): update build image")

		// then
		require.ErrorIs(t, err, domain.ErrPublishConflict)
	})
}

func TestRepositoryName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "should strip scheme and .git suffix", url: "https://github.com/org/service-a.git", expected: "service-a"},
		{name: "should handle URLs without .git", url: "https://github.com/org/service-b", expected: "service-b"},
		{name: "should handle SSH style URLs", url: "git@github.com:org/service-c.git", expected: "service-c"},
		{name: "should handle trailing slash", url: "https://github.com/org/service-d/", expected: "service-d"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			url := tt.url

			// when
			name := gitrepo.RepositoryName(url)

			// then
			assert.Equal(t, tt.expected, name)
		})
	}
}
