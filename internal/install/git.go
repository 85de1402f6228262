package install

import (
	"context"
	"fmt"
	"os"

	"github.com/adamancini/hmm/internal/git"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

// GitInstaller clones and updates git working copies.
type GitInstaller struct {
	Layout state.Layout
	Git    GitClient
}

// Install implements Installer.
//
// Missing entries are cloned fresh. Outdated entries are fetched and checked
// out in place, unless HEAD could not be resolved, in which case the working
// copy is replaced. Conflicts are refused.
func (g *GitInstaller) Install(ctx context.Context, st state.Status) (Action, error) {
	switch st.Kind {
	case types.StatusMissing, types.StatusMissingRepository:
		return ActionClone, g.clone(ctx, st)
	case types.StatusOutdated:
		if st.Installed == state.UnknownInstalled {
			return ActionClone, g.clone(ctx, st)
		}
		return ActionUpdate, g.update(ctx, st)
	case types.StatusConflict:
		return ActionRefuse, fmt.Errorf("%w in %s", ErrConflict, g.Layout.RepoDir(st.Name()))
	default:
		return ActionNone, nil
	}
}

func (g *GitInstaller) clone(ctx context.Context, st state.Status) error {
	dep := st.Dependency
	record := g.Layout.RecordDir(dep.Name)

	if err := os.MkdirAll(record, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", record, err)
	}
	if err := writeFileAtomic(g.Layout.CurrentMarker(dep.Name), state.GitSentinel); err != nil {
		return err
	}
	if err := removeIfExists(g.Layout.DevMarker(dep.Name)); err != nil {
		return fmt.Errorf("failed to remove stale %s marker: %w", state.DevMarker, err)
	}

	tmp, err := os.MkdirTemp(record, ".clone-")
	if err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	if err := g.Git.Clone(ctx, git.NormalizeURL(dep.URL), tmp); err != nil {
		return err
	}
	if dep.Ref != "" {
		if err := g.Git.Checkout(ctx, tmp, dep.Ref); err != nil {
			return err
		}
	}

	repoDir := g.Layout.RepoDir(dep.Name)
	if err := os.RemoveAll(repoDir); err != nil {
		return fmt.Errorf("failed to remove broken working copy %s: %w", repoDir, err)
	}
	if err := os.Rename(tmp, repoDir); err != nil {
		return fmt.Errorf("failed to move clone into %s: %w", repoDir, err)
	}
	return nil
}

func (g *GitInstaller) update(ctx context.Context, st state.Status) error {
	repoDir := g.Layout.RepoDir(st.Name())
	if err := g.Git.Fetch(ctx, repoDir); err != nil {
		return err
	}
	if st.Dependency.Ref == "" {
		return nil
	}
	return g.Git.Checkout(ctx, repoDir, st.Dependency.Ref)
}

// DevInstaller points a dependency at a local development directory.
type DevInstaller struct {
	Layout state.Layout
}

// Install implements Installer.
func (d *DevInstaller) Install(_ context.Context, st state.Status) (Action, error) {
	dep := st.Dependency
	if err := writeFileAtomic(d.Layout.DevMarker(dep.Name), dep.DirValue()); err != nil {
		return ActionLink, err
	}
	return ActionLink, nil
}
