package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/types"
)

// Repository is the git capability the inspector needs.
// *git.Client implements it.
type Repository interface {
	IsRepository(ctx context.Context, path string) bool
	Head(ctx context.Context, path string) (string, error)
	CurrentBranch(ctx context.Context, path string) string
	ResolveRef(ctx context.Context, path, ref string) (string, error)
	IsDirty(ctx context.Context, path string) (bool, error)
}

// Prober classifies one kind of dependency whose record directory exists.
type Prober interface {
	Probe(ctx context.Context, layout Layout, dep manifest.Dependency) Status
}

// Inspector classifies dependencies against the library cache.
// It only reads the filesystem and never prints.
type Inspector struct {
	layout  Layout
	probers map[types.SourceKind]Prober
}

// NewInspector creates an Inspector with the standard per-kind probers.
func NewInspector(layout Layout, repo Repository) *Inspector {
	return &Inspector{
		layout: layout,
		probers: map[types.SourceKind]Prober{
			types.SourceKindHaxelib: RegistryProber{},
			types.SourceKindGit:     GitProber{Repo: repo},
			types.SourceKindDev:     DevProber{},
		},
	}
}

// Layout returns the cache layout the inspector reads.
func (i *Inspector) Layout() Layout {
	return i.layout
}

// Inspect classifies a single dependency.
func (i *Inspector) Inspect(ctx context.Context, dep manifest.Dependency) Status {
	if !dep.Kind.Supported() {
		return newStatus(dep, types.StatusUnsupported)
	}
	prober, ok := i.probers[dep.Kind]
	if !ok {
		return errorStatus(dep, fmt.Errorf("no inspector for type %s", dep.Kind))
	}

	if err := ctx.Err(); err != nil {
		return errorStatus(dep, err)
	}

	info, err := os.Stat(i.layout.RecordDir(dep.Name))
	if errors.Is(err, fs.ErrNotExist) {
		return newStatus(dep, types.StatusMissing)
	}
	if err != nil {
		return errorStatus(dep, fmt.Errorf("cannot stat record directory: %w", err))
	}
	if !info.IsDir() {
		return errorStatus(dep, fmt.Errorf("record path %s is not a directory", i.layout.RecordDir(dep.Name)))
	}

	return prober.Probe(ctx, i.layout, dep)
}

// ReadMarker returns the marker recording what is installed for name.
// The .dev marker wins over .current. Contents are returned verbatim.
func ReadMarker(layout Layout, name string) (string, error) {
	data, err := os.ReadFile(layout.DevMarker(name))
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("cannot read %s marker: %w", DevMarker, err)
	}

	data, err = os.ReadFile(layout.CurrentMarker(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		return "", fmt.Errorf("cannot read %s marker: %w", CurrentMarker, err)
	}
	return string(data), nil
}

// RegistryProber classifies haxelib entries by their marker contents.
type RegistryProber struct{}

// Probe implements Prober.
func (RegistryProber) Probe(_ context.Context, layout Layout, dep manifest.Dependency) Status {
	marker, err := ReadMarker(layout, dep.Name)
	if errors.Is(err, fs.ErrNotExist) {
		return newStatus(dep, types.StatusOutdated)
	}
	if err != nil {
		return errorStatus(dep, err)
	}

	// No trimming: a marker with a trailing newline is a different version.
	if marker != dep.Version {
		s := newStatus(dep, types.StatusOutdated)
		s.Installed = marker
		return s
	}

	s := newStatus(dep, types.StatusInstalled)
	s.Installed = marker
	return s
}

// GitProber classifies git entries by inspecting their working copy.
type GitProber struct {
	Repo Repository
}

// Probe implements Prober.
func (p GitProber) Probe(ctx context.Context, layout Layout, dep manifest.Dependency) Status {
	repoDir := layout.RepoDir(dep.Name)

	if _, err := os.Stat(repoDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newStatus(dep, types.StatusMissingRepository)
		}
		return errorStatus(dep, fmt.Errorf("cannot stat working copy: %w", err))
	}

	if !p.Repo.IsRepository(ctx, repoDir) {
		return newStatus(dep, types.StatusMissing)
	}

	head, err := p.Repo.Head(ctx, repoDir)
	if err != nil {
		s := newStatus(dep, types.StatusOutdated)
		s.Installed = UnknownInstalled
		return s
	}

	branch := p.Repo.CurrentBranch(ctx, repoDir)
	observed := branch
	if observed == "" {
		observed = shortCommit(head)
	}

	if !p.matchesRef(ctx, repoDir, dep.Ref, head, branch) {
		s := newStatus(dep, types.StatusOutdated)
		s.Installed = observed
		s.Commit = head
		return s
	}

	dirty, err := p.Repo.IsDirty(ctx, repoDir)
	if err != nil {
		return errorStatus(dep, err)
	}

	kind := types.StatusInstalled
	if dirty {
		kind = types.StatusConflict
	}
	s := newStatus(dep, kind)
	s.Installed = observed
	s.Commit = head
	return s
}

// matchesRef reports whether ref identifies the checked-out HEAD: an empty
// ref, the full commit, the current branch name, a name resolving to HEAD,
// or a hash prefix of HEAD.
func (p GitProber) matchesRef(ctx context.Context, repoDir, ref, head, branch string) bool {
	switch {
	case ref == "":
		return true
	case ref == head:
		return true
	case branch != "" && ref == branch:
		return true
	case isHashPrefix(ref, head):
		return true
	}

	resolved, err := p.Repo.ResolveRef(ctx, repoDir, ref)
	return err == nil && resolved == head
}

// minHashPrefix matches git's shortest abbreviation.
const minHashPrefix = 4

func isHashPrefix(ref, head string) bool {
	if len(ref) < minHashPrefix || len(ref) > len(head) {
		return false
	}
	for _, r := range ref {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return strings.HasPrefix(head, strings.ToLower(ref))
}

// DevProber classifies dev entries by comparing the .dev marker to the
// manifest's dir.
type DevProber struct{}

// Probe implements Prober.
func (DevProber) Probe(_ context.Context, layout Layout, dep manifest.Dependency) Status {
	data, err := os.ReadFile(layout.DevMarker(dep.Name))
	if errors.Is(err, fs.ErrNotExist) {
		return newStatus(dep, types.StatusOutdated)
	}
	if err != nil {
		return errorStatus(dep, fmt.Errorf("cannot read %s marker: %w", DevMarker, err))
	}

	s := newStatus(dep, types.StatusOutdated)
	s.Installed = string(data)
	if s.Installed == dep.DirValue() {
		s.Kind = types.StatusInstalled
	}
	return s
}
