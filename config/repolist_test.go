package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devarsh10/javasync/config"
	"github.com/devarsh10/javasync/domain"
)

func TestLoadRepositoryList_CSV(t *testing.T) {
	t.Parallel()

	t.Run("should parse rows in order", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeList(t, "repos.csv", `repository_url,branch
https://github.com/org/service-a.git,main
https://github.com/org/service-b.git,develop
`)

		// when
		entries, err := config.LoadRepositoryList(path)

		// then
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.RepositoryEntry{URL: "https://github.com/org/service-a.git", Branch: "main"}, entries[0])
		assert.Equal(t, domain.RepositoryEntry{URL: "https://github.com/org/service-b.git", Branch: "develop"}, entries[1])
	})

	t.Run("should accept a row without a branch", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeList(t, "repos.csv", `repository_url,branch
https://github.com/org/service-a.git
`)

		// when
		entries, err := config.LoadRepositoryList(path)

		// then
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Empty(t, entries[0].Branch)
	})

	t.Run("should skip blank rows", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeList(t, "repos.csv", `repository_url,branch
https://github.com/org/service-a.git,main
,
`)

		// when
		entries, err := config.LoadRepositoryList(path)

		// then
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("should reject duplicate repository URLs", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeList(t, "repos.csv", `repository_url,branch
https://github.com/org/service-a.git,main
https://github.com/org/service-a.git,develop
`)

		// when
		_, err := config.LoadRepositoryList(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than once")
	})

	t.Run("should reject an empty list", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeList(t, "repos.csv", "repository_url,branch\n")

		// when
		_, err := config.LoadRepositoryList(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})
}

func TestLoadRepositoryList_INI(t *testing.T) {
	t.Parallel()

	t.Run("should parse sections in order", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeList(t, "repos.ini", `[service-a]
url = https://github.com/org/service-a.git
branch = main

[service-b]
url = https://github.com/org/service-b.git
branch = develop
`)

		// when
		entries, err := config.LoadRepositoryList(path)

		// then
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "https://github.com/org/service-a.git", entries[0].URL)
		assert.Equal(t, "develop", entries[1].Branch)
	})

	t.Run("should fail on a section without a url", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeList(t, "repos.ini", `[service-a]
branch = main
`)

		// when
		_, err := config.LoadRepositoryList(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no url key")
	})
}

func TestLoadRepositoryList_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	t.Run("should reject unknown extensions", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeList(t, "repos.txt", "whatever\n")

		// when
		_, err := config.LoadRepositoryList(path)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported repository list format")
	})
}

func writeList(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
