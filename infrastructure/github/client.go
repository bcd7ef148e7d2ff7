package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// Client resolves repository metadata through the GitHub API. It backs the
// repository-list entries that omit a branch: instead of guessing "main",
// the orchestrator asks the hosting service which branch is the default.
type Client struct {
	api *gh.Client
}

// NewClient creates a client authenticated with the given token. An empty
// token yields an anonymous client, which works for public repositories
// within the unauthenticated rate limit.
func NewClient(token string) *Client {
	client := gh.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &Client{api: client}
}

// DefaultBranch returns the default branch of the repository behind the
// given remote URL.
func (c *Client) DefaultBranch(ctx context.Context, repoURL string) (string, error) {
	owner, name, err := SplitRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	repo, _, err := c.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("failed to look up %s/%s: %w", owner, name, err)
	}
	if repo.GetDefaultBranch() == "" {
		return "", fmt.Errorf("no default branch reported for %s/%s", owner, name)
	}
	return repo.GetDefaultBranch(), nil
}

// SplitRepoURL extracts owner and repository name from a GitHub remote URL
// in either of the usual layouts:
//
//	HTTPS: https://github.com/{owner}/{repo}[.git]
//	SSH:   git@github.com:{owner}/{repo}[.git]
func SplitRepoURL(rawURL string) (string, string, error) {
	cleaned := strings.TrimSuffix(strings.TrimSuffix(rawURL, "/"), ".git")

	if !strings.Contains(cleaned, "github.com") {
		return "", "", fmt.Errorf("not a github.com remote: %s", rawURL)
	}

	var pathPart string
	if strings.HasPrefix(cleaned, "git@") {
		parts := strings.SplitN(cleaned, ":", 2)
		if len(parts) < 2 {
			return "", "", fmt.Errorf("invalid SSH URL: %s", rawURL)
		}
		pathPart = parts[1]
	} else {
		idx := strings.Index(cleaned, "github.com")
		pathPart = strings.TrimPrefix(cleaned[idx+len("github.com"):], "/")
	}

	segments := strings.Split(pathPart, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("cannot extract owner/repo from URL: %s", rawURL)
	}

	return segments[0], segments[1], nil
}
