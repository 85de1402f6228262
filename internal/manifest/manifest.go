// Package manifest handles hmm.json loading, saving, and integrity checks.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamancini/hmm/internal/types"
)

// DefaultFileName is the manifest file created by `hmm init`.
const DefaultFileName = "hmm.json"

// ErrNotFound is returned by Load when the manifest file does not exist.
var ErrNotFound = errors.New("manifest not found")

// Dependency is a single pinned entry in the manifest.
//
// Exactly one of Version or Ref applies, depending on Kind: haxelib entries
// carry a Version, git entries carry a URL and an optional Ref (branch, tag,
// or commit hash/prefix), dev entries carry a Dir.
type Dependency struct {
	Name    string           `json:"name" yaml:"name" toml:"name"`
	Kind    types.SourceKind `json:"type" yaml:"type" toml:"type"`
	Ref     string           `json:"ref,omitempty" yaml:"ref,omitempty" toml:"ref,omitempty"`
	Dir     *string          `json:"dir" yaml:"dir" toml:"dir,omitempty"`
	URL     string           `json:"url,omitempty" yaml:"url,omitempty" toml:"url,omitempty"`
	Version string           `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
}

// DirValue returns the dir override, or an empty string if unset.
func (d Dependency) DirValue() string {
	if d.Dir == nil {
		return ""
	}
	return *d.Dir
}

// Pin returns the value the dependency is pinned to: the version for
// registry entries, the ref for git entries, and the dir for dev entries.
func (d Dependency) Pin() string {
	switch d.Kind {
	case types.SourceKindHaxelib:
		return d.Version
	case types.SourceKindGit, types.SourceKindMercurial:
		return d.Ref
	case types.SourceKindDev:
		return d.DirValue()
	default:
		return ""
	}
}

// Manifest is the parsed dependency list.
type Manifest struct {
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies" toml:"dependencies"`
}

// Find returns the dependency with the given name, or nil.
func (m *Manifest) Find(name string) *Dependency {
	for i := range m.Dependencies {
		if m.Dependencies[i].Name == name {
			return &m.Dependencies[i]
		}
	}
	return nil
}

// Add adds a dependency, replacing an existing entry with the same name in place.
// Returns true if an existing entry was replaced.
func (m *Manifest) Add(dep Dependency) bool {
	for i := range m.Dependencies {
		if m.Dependencies[i].Name == dep.Name {
			m.Dependencies[i] = dep
			return true
		}
	}
	m.Dependencies = append(m.Dependencies, dep)
	return false
}

// Remove deletes the dependency with the given name. Returns true if found.
func (m *Manifest) Remove(name string) bool {
	for i := range m.Dependencies {
		if m.Dependencies[i].Name == name {
			m.Dependencies = append(m.Dependencies[:i], m.Dependencies[i+1:]...)
			return true
		}
	}
	return false
}

// Load reads, parses, and validates a manifest from the given path.
func Load(path string) (*Manifest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	m, err := parse(content, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := Validate(m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}

// Save writes the manifest to path atomically. The format follows the file
// extension, defaulting to JSON.
func Save(path string, m *Manifest) error {
	data, err := encode(m, formatForSave(path))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating manifest directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting manifest permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp manifest: %w", err)
	}

	return nil
}

// CreateEmpty writes a manifest with no dependencies. An existing file is
// left untouched and reported through the returned bool.
func CreateEmpty(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := Save(path, &Manifest{Dependencies: []Dependency{}}); err != nil {
		return false, err
	}
	return true, nil
}
