// Package install brings dependencies that are missing or outdated in the
// library cache in line with their manifest pins.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamancini/hmm/internal/registry"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

// ErrConflict is returned for git working copies with local modifications.
// They are never overwritten.
var ErrConflict = errors.New("working copy has uncommitted changes")

// ErrUnsupported is returned for source kinds without an install strategy.
var ErrUnsupported = errors.New("source kind cannot be installed")

// Installer brings one classified dependency to its pin.
type Installer interface {
	Install(ctx context.Context, st state.Status) (Action, error)
}

// Downloader fetches registry archives. *registry.Client implements it.
type Downloader interface {
	Download(ctx context.Context, name, version, dst string, progress registry.ProgressFunc) (int64, error)
}

// GitClient populates git working copies. *git.Client implements it.
type GitClient interface {
	Clone(ctx context.Context, url, dest string) error
	Fetch(ctx context.Context, path string) error
	Checkout(ctx context.Context, path, ref string) error
}

// Action describes what an install did.
type Action string

const (
	ActionDownload Action = "download"
	ActionClone    Action = "clone"
	ActionUpdate   Action = "update"
	ActionLink     Action = "link"
	ActionSkip     Action = "skip"
	ActionRefuse   Action = "refuse"
	ActionNone     Action = "none"
)

// UnsupportedInstaller rejects every install.
type UnsupportedInstaller struct{}

// Install implements Installer.
func (UnsupportedInstaller) Install(_ context.Context, st state.Status) (Action, error) {
	return ActionNone, fmt.Errorf("%w: %s", ErrUnsupported, st.Dependency.Kind)
}

// installerFor returns the installer registered for kind, falling back to
// UnsupportedInstaller.
func installerFor(installers map[types.SourceKind]Installer, kind types.SourceKind) Installer {
	if in, ok := installers[kind]; ok {
		return in
	}
	return UnsupportedInstaller{}
}

// writeFileAtomic replaces path with content through a temp file in the
// same directory.
func writeFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// removeIfExists removes path, treating a missing file as success.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
