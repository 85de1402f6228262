// Package cmd contains the CLI command implementations.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"

	"github.com/adamancini/hmm/internal/config"
	"github.com/adamancini/hmm/internal/git"
	"github.com/adamancini/hmm/internal/install"
	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/reconcile"
	"github.com/adamancini/hmm/internal/registry"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

// Deps overrides the external collaborators of a Service (for testing).
type Deps struct {
	GitRunner  git.CommandRunner
	HTTPClient *http.Client
}

// Service connects the resolved settings to the manifest, the library cache
// inspector and the installers.
type Service struct {
	cfg       *config.Config
	layout    state.Layout
	logger    *log.Logger
	git       *git.Client
	registry  *registry.Client
	inspector *state.Inspector
}

// NewService creates a service from resolved settings.
func NewService(cfg *config.Config, logger *log.Logger, deps Deps) *Service {
	gitClient := git.NewClient()
	if deps.GitRunner != nil {
		gitClient = git.NewClientWithRunner(deps.GitRunner)
	}

	opts := []registry.Option{registry.WithLogger(logger)}
	if deps.HTTPClient != nil {
		opts = append(opts, registry.WithHTTPClient(deps.HTTPClient))
	}

	layout := state.NewLayout(cfg.Root)
	return &Service{
		cfg:       cfg,
		layout:    layout,
		logger:    logger,
		git:       gitClient,
		registry:  registry.NewClient(cfg.RegistryURL, cfg.HTTPTimeout, opts...),
		inspector: state.NewInspector(layout, gitClient),
	}
}

// Layout returns the library cache layout.
func (s *Service) Layout() state.Layout {
	return s.layout
}

// RegistryURL returns the configured registry base URL.
func (s *Service) RegistryURL() string {
	return s.cfg.RegistryURL
}

// ManifestPath returns the manifest path in use.
func (s *Service) ManifestPath() string {
	return s.cfg.Manifest
}

// LoadManifest loads and validates the manifest.
func (s *Service) LoadManifest() (*manifest.Manifest, error) {
	m, err := manifest.Load(s.cfg.Manifest)
	if errors.Is(err, manifest.ErrNotFound) {
		return nil, fmt.Errorf("%w (run `hmm init` to create one, or pass --path)", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	s.logger.Debug("loaded manifest", "path", s.cfg.Manifest, "dependencies", len(m.Dependencies))
	return m, nil
}

// Check classifies every dependency against the library cache.
func (s *Service) Check(ctx context.Context, deps []manifest.Dependency) *reconcile.Result {
	s.warnIfGitMissing(ctx, deps)
	return reconcile.NewEngine(s.inspector, s.cfg.Concurrency).Run(ctx, deps)
}

// Install brings every dependency in line with its pin. It returns the
// install report and the result of a final check.
func (s *Service) Install(ctx context.Context, deps []manifest.Dependency) (*install.Report, *reconcile.Result) {
	before := s.Check(ctx, deps)
	if before.InSync() {
		s.logger.Debug("all dependencies already installed")
	} else {
		s.logger.Debug("reconciled manifest", "pending", len(before.Pending()), "attention", len(before.Attention()))
	}

	report := s.dispatcher().Execute(ctx, before)
	after := reconcile.NewEngine(s.inspector, s.cfg.Concurrency).Run(ctx, deps)
	return report, after
}

// Init creates the library cache root and an empty manifest. It fails when
// the root already exists. The returned bool reports whether the manifest
// was created.
func (s *Service) Init() (bool, error) {
	if _, err := os.Stat(s.layout.Root); err == nil {
		return false, fmt.Errorf("a %s folder already exists, so it won't be created (use `hmm clean` to remove it)", s.layout.Root)
	}
	if err := os.Mkdir(s.layout.Root, 0755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", s.layout.Root, err)
	}
	s.logger.Info("created library folder", "path", s.layout.Root)

	created, err := manifest.CreateEmpty(s.cfg.Manifest)
	if err != nil {
		return false, fmt.Errorf("failed to create manifest: %w", err)
	}
	return created, nil
}

// Clean removes the library cache root. It fails when the root is missing.
func (s *Service) Clean() error {
	if _, err := os.Stat(s.layout.Root); os.IsNotExist(err) {
		return fmt.Errorf("a %s folder does not exist, so it cannot be removed", s.layout.Root)
	}
	if err := os.RemoveAll(s.layout.Root); err != nil {
		return fmt.Errorf("failed to remove %s: %w", s.layout.Root, err)
	}
	s.logger.Info("removed library folder", "path", s.layout.Root)
	return nil
}

// AddRegistry pins name to a registry version in the manifest, saves it, and
// installs that one dependency.
func (s *Service) AddRegistry(ctx context.Context, name, version string) (*install.Report, *reconcile.Result, error) {
	m, err := s.LoadManifest()
	if err != nil {
		return nil, nil, err
	}

	dep := manifest.Dependency{Name: name, Kind: types.SourceKindHaxelib, Version: version}
	replaced := m.Add(dep)
	if err := manifest.Validate(m); err != nil {
		return nil, nil, err
	}
	if err := manifest.Save(s.cfg.Manifest, m); err != nil {
		return nil, nil, fmt.Errorf("failed to save manifest: %w", err)
	}
	s.logger.Info("pinned dependency", "name", name, "version", version, "replaced", replaced)

	report, after := s.Install(ctx, []manifest.Dependency{dep})
	return report, after, nil
}

// Remove drops the named dependencies from the manifest. With purge, their
// record directories are deleted as well. Unknown names are an error and
// leave the manifest untouched.
func (s *Service) Remove(ctx context.Context, names []string, purge bool) error {
	m, err := s.LoadManifest()
	if err != nil {
		return err
	}

	var missing []error
	for _, name := range names {
		if !m.Remove(name) {
			missing = append(missing, fmt.Errorf("dependency %q is not in %s", name, s.cfg.Manifest))
		}
	}
	if len(missing) > 0 {
		return errors.Join(missing...)
	}

	if err := manifest.Save(s.cfg.Manifest, m); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	if !purge {
		return nil
	}
	d := s.dispatcher()
	for _, name := range names {
		if err := d.Purge(ctx, name); err != nil {
			return err
		}
		s.logger.Info("purged", "name", name, "path", s.layout.RecordDir(name))
	}
	return nil
}

func (s *Service) dispatcher() *install.Dispatcher {
	return install.NewDispatcher(s.layout, s.inspector, s.registry, s.git, s.logger, install.Options{
		Concurrency: s.cfg.InstallConcurrency,
		Timeout:     s.cfg.InstallTimeout,
	})
}

func (s *Service) warnIfGitMissing(ctx context.Context, deps []manifest.Dependency) {
	for _, dep := range deps {
		if dep.Kind.IsGit() {
			if !s.git.Available(ctx) {
				s.logger.Warn("git executable not found, git dependencies cannot be inspected or installed")
			}
			return
		}
	}
}
