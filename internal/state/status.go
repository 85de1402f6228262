package state

import (
	"fmt"
	"strings"

	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/types"
)

// UnknownInstalled is reported when a git working copy's HEAD cannot be resolved.
const UnknownInstalled = "unknown"

// Status is the classified installation state of one dependency.
// It is recomputed on every pass and never persisted.
type Status struct {
	Dependency manifest.Dependency
	Kind       types.StatusKind
	// Wants is the expected version or ref.
	Wants string
	// Installed is what was observed on disk. Empty when nothing was found.
	Installed string
	// Commit is the full HEAD commit of a git working copy, when known.
	Commit string
	// Err holds the cause for StatusError entries.
	Err error
}

func newStatus(dep manifest.Dependency, kind types.StatusKind) Status {
	return Status{Dependency: dep, Kind: kind, Wants: dep.Pin()}
}

func errorStatus(dep manifest.Dependency, err error) Status {
	s := newStatus(dep, types.StatusError)
	s.Err = err
	return s
}

// Name returns the dependency name.
func (s Status) Name() string {
	return s.Dependency.Name
}

// Detail describes the expected and observed state for reporting.
func (s Status) Detail() string {
	wants := s.Wants
	if wants == "" && s.Dependency.Kind.IsGit() {
		wants = "default branch"
	}

	switch s.Kind {
	case types.StatusInstalled:
		return describeInstalled(s, wants)
	case types.StatusMissing:
		return fmt.Sprintf("not installed (wants %s)", wants)
	case types.StatusMissingRepository:
		return fmt.Sprintf("git working copy missing (wants %s)", wants)
	case types.StatusOutdated:
		installed := s.Installed
		if installed == "" {
			installed = "nothing"
		}
		if s.Commit != "" && !strings.HasPrefix(s.Commit, installed) {
			installed = fmt.Sprintf("%s (%s)", installed, s.Commit)
		}
		return fmt.Sprintf("wants %s, installed %s", wants, installed)
	case types.StatusConflict:
		return fmt.Sprintf("uncommitted changes in working copy at %s", shortCommit(s.Commit))
	case types.StatusUnsupported:
		return fmt.Sprintf("%s dependencies cannot be installed", s.Dependency.Kind)
	case types.StatusError:
		if s.Err != nil {
			return s.Err.Error()
		}
		return "inspection failed"
	default:
		return string(s.Kind)
	}
}

func describeInstalled(s Status, wants string) string {
	if s.Commit != "" {
		return fmt.Sprintf("%s at %s", wants, shortCommit(s.Commit))
	}
	return wants
}

// String implements fmt.Stringer.
func (s Status) String() string {
	return fmt.Sprintf("%s: %s (%s)", s.Name(), s.Kind, s.Detail())
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
