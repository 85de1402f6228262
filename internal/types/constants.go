// Package types provides type-safe constants shared across hmm.
//
// The manifest stores these values as plain strings; this package centralizes
// the enumerations so the rest of the codebase switches on typed constants
// instead of comparing magic strings.
package types

import (
	"fmt"
	"strings"
)

// SourceKind identifies where a dependency is installed from.
type SourceKind string

const (
	// SourceKindGit is a dependency cloned from a git remote.
	SourceKindGit SourceKind = "git"
	// SourceKindHaxelib is a dependency downloaded from the lib.haxe.org registry.
	SourceKindHaxelib SourceKind = "haxelib"
	// SourceKindDev is a dependency pointing at a local development directory.
	SourceKindDev SourceKind = "dev"
	// SourceKindMercurial is a dependency cloned from a mercurial remote.
	// It is accepted in manifests but cannot be installed.
	SourceKindMercurial SourceKind = "hg"
)

// AllSourceKinds returns all valid source kinds.
func AllSourceKinds() []SourceKind {
	return []SourceKind{SourceKindGit, SourceKindHaxelib, SourceKindDev, SourceKindMercurial}
}

// Validate checks if the SourceKind is a valid value.
func (k SourceKind) Validate() error {
	if k == "" {
		return fmt.Errorf("type is required")
	}
	names := make([]string, 0, 4)
	for _, known := range AllSourceKinds() {
		if k == known {
			return nil
		}
		names = append(names, string(known))
	}
	return fmt.Errorf("invalid type '%s' (must be one of %s)", k, strings.Join(names, ", "))
}

// String returns the string representation of the SourceKind.
func (k SourceKind) String() string {
	return string(k)
}

// IsGit returns true if the dependency is cloned with git.
func (k SourceKind) IsGit() bool {
	return k == SourceKindGit
}

// IsHaxelib returns true if the dependency comes from the registry.
func (k SourceKind) IsHaxelib() bool {
	return k == SourceKindHaxelib
}

// IsDev returns true if the dependency is a local development directory.
func (k SourceKind) IsDev() bool {
	return k == SourceKindDev
}

// Supported returns true if hmm knows how to inspect and install the kind.
func (k SourceKind) Supported() bool {
	return k == SourceKindGit || k == SourceKindHaxelib || k == SourceKindDev
}

// StatusKind classifies how a dependency's local installation compares to its pin.
type StatusKind string

const (
	// StatusMissing means there is no record directory for the dependency.
	StatusMissing StatusKind = "missing"
	// StatusMissingRepository means the record directory exists but the git
	// working copy inside it does not.
	StatusMissingRepository StatusKind = "missing-repository"
	// StatusOutdated means the installed version or ref differs from the pin.
	StatusOutdated StatusKind = "outdated"
	// StatusConflict means the git working copy has uncommitted modifications.
	StatusConflict StatusKind = "conflict"
	// StatusInstalled means the installation matches the pin and is clean.
	StatusInstalled StatusKind = "installed"
	// StatusUnsupported means the source kind has no install strategy.
	StatusUnsupported StatusKind = "unsupported"
	// StatusError means the installation could not be inspected.
	StatusError StatusKind = "error"
)

// AllStatusKinds returns every status kind in reporting order.
func AllStatusKinds() []StatusKind {
	return []StatusKind{
		StatusInstalled,
		StatusMissing,
		StatusMissingRepository,
		StatusOutdated,
		StatusConflict,
		StatusUnsupported,
		StatusError,
	}
}

// String returns the string representation of the StatusKind.
func (s StatusKind) String() string {
	return string(s)
}

// NeedsInstall returns true if an install can bring the dependency in line
// with its pin.
func (s StatusKind) NeedsInstall() bool {
	switch s {
	case StatusMissing, StatusMissingRepository, StatusOutdated:
		return true
	default:
		return false
	}
}

// IsInstalled returns true if the dependency is correctly installed.
func (s StatusKind) IsInstalled() bool {
	return s == StatusInstalled
}

// OutputFormat represents an output format for command results.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// AllOutputFormats returns all valid output formats.
func AllOutputFormats() []OutputFormat {
	return []OutputFormat{OutputText, OutputJSON, OutputYAML}
}

// ParseOutputFormat parses a string into an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	case "yaml", "yml":
		return OutputYAML, nil
	default:
		names := make([]string, 0, 3)
		for _, f := range AllOutputFormats() {
			names = append(names, string(f))
		}
		return "", fmt.Errorf("unknown format: %s (must be one of %s)", s, strings.Join(names, ", "))
	}
}
