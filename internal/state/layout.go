// Package state inspects the local library cache and classifies each
// manifest dependency's installation state.
package state

import (
	"path/filepath"
	"strings"
)

const (
	// DefaultRoot is the library cache directory, relative to the project.
	DefaultRoot = ".haxelib"

	// CurrentMarker records the installed registry version, or GitSentinel
	// for git-managed entries.
	CurrentMarker = ".current"

	// DevMarker records a development directory override. It takes
	// precedence over CurrentMarker.
	DevMarker = ".dev"

	// GitSentinel is written to CurrentMarker for git-managed entries.
	GitSentinel = "git"

	// RepositoryDir is the git working copy inside a record directory.
	RepositoryDir = "git"
)

// Layout maps dependency names to paths inside the library cache.
type Layout struct {
	Root string
}

// NewLayout creates a Layout rooted at root.
func NewLayout(root string) Layout {
	if root == "" {
		root = DefaultRoot
	}
	return Layout{Root: root}
}

// SafeName converts a dependency name or version into a directory name.
// Every '.' is replaced with ','.
func SafeName(name string) string {
	return strings.ReplaceAll(name, ".", ",")
}

// RecordDir returns the record directory for a dependency.
func (l Layout) RecordDir(name string) string {
	return filepath.Join(l.Root, SafeName(name))
}

// CurrentMarker returns the path of the .current marker.
func (l Layout) CurrentMarker(name string) string {
	return filepath.Join(l.RecordDir(name), CurrentMarker)
}

// DevMarker returns the path of the .dev marker.
func (l Layout) DevMarker(name string) string {
	return filepath.Join(l.RecordDir(name), DevMarker)
}

// RepoDir returns the git working copy path.
func (l Layout) RepoDir(name string) string {
	return filepath.Join(l.RecordDir(name), RepositoryDir)
}

// PayloadDir returns the directory an unpacked registry version lives in.
func (l Layout) PayloadDir(name, version string) string {
	return filepath.Join(l.RecordDir(name), SafeName(version))
}

// LockPath returns the per-dependency lock file. It lives beside the
// record directory so it survives the record being replaced.
func (l Layout) LockPath(name string) string {
	return filepath.Join(l.Root, "."+SafeName(name)+".lock")
}
