// Package git wraps the git executable for inspecting and populating the
// working copies of git dependencies.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandRunner is an interface for running external commands.
// This allows for mocking in tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner uses os/exec to run commands.
type DefaultCommandRunner struct{}

// Run executes a command in the current directory.
func (r *DefaultCommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd.CombinedOutput()
}

// RunInDir executes a command in the specified directory.
func (r *DefaultCommandRunner) RunInDir(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd.CombinedOutput()
}

// Client runs git commands against working copies.
type Client struct {
	runner CommandRunner
}

// NewClient creates a Client with the default command runner.
func NewClient() *Client {
	return &Client{runner: &DefaultCommandRunner{}}
}

// NewClientWithRunner creates a Client with a custom command runner (for testing).
func NewClientWithRunner(runner CommandRunner) *Client {
	return &Client{runner: runner}
}

// Available checks if git is available on the system.
func (c *Client) Available(ctx context.Context) bool {
	_, err := c.runner.Run(ctx, "git", "--version")
	return err == nil
}

// IsRepository reports whether path is the root of a git working copy.
// A directory nested inside some other repository does not count.
func (c *Client) IsRepository(ctx context.Context, path string) bool {
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return false
	}
	output, err := c.runner.RunInDir(ctx, path, "git", "rev-parse", "--git-dir")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) != ""
}

// Head returns the full commit id HEAD points at.
func (c *Client) Head(ctx context.Context, path string) (string, error) {
	output, err := c.runner.RunInDir(ctx, path, "git", "rev-parse", "--verify", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the short name of the checked-out branch, or an
// empty string when HEAD is detached.
func (c *Client) CurrentBranch(ctx context.Context, path string) string {
	output, err := c.runner.RunInDir(ctx, path, "git", "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}

// ResolveRef returns the commit id a branch, tag, or revision resolves to.
func (c *Client) ResolveRef(ctx context.Context, path, ref string) (string, error) {
	output, err := c.runner.RunInDir(ctx, path, "git", "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("cannot resolve %q: %w", ref, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// IsDirty reports whether tracked files have uncommitted modifications.
// Untracked files are ignored.
func (c *Client) IsDirty(ctx context.Context, path string) (bool, error) {
	output, err := c.runner.RunInDir(ctx, path, "git", "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, fmt.Errorf("git status failed: %w", err)
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// Clone clones url into dest. dest must not exist or be empty.
func (c *Client) Clone(ctx context.Context, url, dest string) error {
	output, err := c.runner.Run(ctx, "git", "clone", "--quiet", url, dest)
	if err != nil {
		return fmt.Errorf("git clone %s failed: %w: %s", url, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Fetch fetches branches and tags from origin.
func (c *Client) Fetch(ctx context.Context, path string) error {
	output, err := c.runner.RunInDir(ctx, path, "git", "fetch", "--quiet", "--tags", "origin")
	if err != nil {
		return fmt.Errorf("git fetch failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Checkout checks out a branch, tag, or commit.
func (c *Client) Checkout(ctx context.Context, path, ref string) error {
	output, err := c.runner.RunInDir(ctx, path, "git", "checkout", "--quiet", ref)
	if err != nil {
		return fmt.Errorf("git checkout %s failed: %w: %s", ref, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// NormalizeURL rewrites a remote URL to use https. ssh shorthand
// (git@host:owner/repo) and git://, http:// and scheme-less URLs are
// converted. https URLs and local remotes (file:// or absolute paths) are
// returned unchanged.
func NormalizeURL(raw string) string {
	url := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(url, "https://"), strings.HasPrefix(url, "file://"), filepath.IsAbs(url):
		return url
	case strings.HasPrefix(url, "http://"):
		return "https://" + strings.TrimPrefix(url, "http://")
	case strings.HasPrefix(url, "git://"):
		return "https://" + strings.TrimPrefix(url, "git://")
	case strings.HasPrefix(url, "ssh://"):
		rest := strings.TrimPrefix(url, "ssh://")
		if at := strings.Index(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		return "https://" + rest
	case strings.HasPrefix(url, "git@"):
		rest := strings.TrimPrefix(url, "git@")
		return "https://" + strings.Replace(rest, ":", "/", 1)
	default:
		return "https://" + url
	}
}
