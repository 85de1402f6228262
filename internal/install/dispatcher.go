package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/adamancini/hmm/internal/logging"
	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/reconcile"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

// lockRetryDelay is how often a held entry lock is retried.
const lockRetryDelay = 100 * time.Millisecond

// Operation records what happened to one dependency during Execute.
type Operation struct {
	Name        string           `json:"name" yaml:"name"`
	Type        types.SourceKind `json:"type" yaml:"type"`
	Status      types.StatusKind `json:"status" yaml:"status"`
	Action      Action           `json:"action" yaml:"action"`
	Description string           `json:"description" yaml:"description"`
	Success     bool             `json:"success" yaml:"success"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the outcome of Execute.
type Report struct {
	Operations []Operation `json:"operations" yaml:"operations"`
	Installed  int         `json:"installed" yaml:"installed"`
	Updated    int         `json:"updated" yaml:"updated"`
	Skipped    int         `json:"skipped" yaml:"skipped"`
	Failed     int         `json:"failed" yaml:"failed"`
	// Attention lists entries that need manual action.
	Attention []string `json:"attention,omitempty" yaml:"attention,omitempty"`
	Errors    []error  `json:"-" yaml:"-"`
}

// HasFailures reports whether any install failed.
func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

// String implements fmt.Stringer.
func (r *Report) String() string {
	var b strings.Builder
	for _, op := range r.Operations {
		if op.Action == ActionSkip {
			continue
		}
		mark := "ok"
		switch {
		case op.Success:
		case op.Action == ActionRefuse:
			mark = "attention"
		default:
			mark = "failed"
		}
		fmt.Fprintf(&b, "%s %s: %s", mark, op.Name, op.Description)
		if op.Error != "" {
			fmt.Fprintf(&b, " (%s)", op.Error)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d installed, %d updated, %d skipped, %d failed", r.Installed, r.Updated, r.Skipped, r.Failed)
	return b.String()
}

// Options configures a Dispatcher.
type Options struct {
	// Concurrency bounds simultaneous installs. Values below 1 mean 1.
	Concurrency int
	// Timeout bounds a single entry's install. Zero means no limit.
	Timeout time.Duration
}

// Dispatcher routes each classified dependency to the installer for its kind.
type Dispatcher struct {
	layout     state.Layout
	inspector  reconcile.Inspector
	installers map[types.SourceKind]Installer
	opts       Options
	logger     *log.Logger
}

// NewDispatcher creates a Dispatcher with the standard installers.
// The inspector is used to re-check entries under their lock and to verify
// each install.
func NewDispatcher(layout state.Layout, inspector reconcile.Inspector, downloader Downloader, gitClient GitClient, logger *log.Logger, opts Options) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	return &Dispatcher{
		layout:    layout,
		inspector: inspector,
		installers: map[types.SourceKind]Installer{
			types.SourceKindHaxelib:   &RegistryInstaller{Layout: layout, Downloader: downloader, Logger: logger},
			types.SourceKindGit:       &GitInstaller{Layout: layout, Git: gitClient},
			types.SourceKindDev:       &DevInstaller{Layout: layout},
			types.SourceKindMercurial: UnsupportedInstaller{},
		},
		opts:   opts,
		logger: logger,
	}
}

// Execute acts on every status in result. Installed entries are skipped,
// conflicts and unsupported kinds are reported for attention, and the rest
// are installed concurrently. One entry's failure never affects another.
// Operations are reported in manifest order.
func (d *Dispatcher) Execute(ctx context.Context, result *reconcile.Result) *Report {
	ops := make([]Operation, len(result.Statuses))
	errs := make([]error, len(result.Statuses))

	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)

	for i, st := range result.Statuses {
		switch {
		case st.Kind.IsInstalled():
			ops[i] = newOperation(st, ActionSkip)
			ops[i].Success = true
			ops[i].Description = "already installed: " + st.Detail()
		case st.Kind.NeedsInstall():
			g.Go(func() error {
				ops[i], errs[i] = d.installOne(ctx, st)
				return nil
			})
		default:
			ops[i], errs[i] = d.refuse(ctx, st)
		}
	}
	_ = g.Wait()

	report := &Report{Operations: ops}
	for i, op := range ops {
		switch {
		case op.Action == ActionSkip:
			report.Skipped++
		case errors.Is(errs[i], ErrConflict), errors.Is(errs[i], ErrUnsupported):
			report.Attention = append(report.Attention, fmt.Sprintf("%s: %s", op.Name, op.Error))
		case errs[i] != nil:
			report.Failed++
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", op.Name, errs[i]))
		case op.Action == ActionUpdate:
			report.Updated++
		default:
			report.Installed++
		}
	}
	return report
}

// Purge removes the record directory for name under its lock.
func (d *Dispatcher) Purge(ctx context.Context, name string) error {
	unlock, err := d.lock(ctx, name)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.RemoveAll(d.layout.RecordDir(name)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", d.layout.RecordDir(name), err)
	}
	return nil
}

func newOperation(st state.Status, action Action) Operation {
	return Operation{
		Name:   st.Name(),
		Type:   st.Dependency.Kind,
		Status: st.Kind,
		Action: action,
	}
}

// refuse reports statuses that installs never act on.
func (d *Dispatcher) refuse(ctx context.Context, st state.Status) (Operation, error) {
	var err error
	switch st.Kind {
	case types.StatusError:
		err = st.Err
		if err == nil {
			err = errors.New("inspection failed")
		}
	default:
		_, err = installerFor(d.installers, st.Dependency.Kind).Install(ctx, st)
	}

	op := newOperation(st, ActionRefuse)
	op.Description = st.Detail()
	if err != nil {
		op.Error = err.Error()
		d.logger.Warn("not installing", "name", st.Name(), "status", st.Kind, "reason", err)
	}
	return op, err
}

func (d *Dispatcher) installOne(ctx context.Context, st state.Status) (Operation, error) {
	op := newOperation(st, ActionNone)

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	fail := func(err error) (Operation, error) {
		op.Success = false
		op.Error = err.Error()
		d.logger.Error("install failed", "name", st.Name(), "wants", st.Wants, "error", err)
		return op, err
	}

	unlock, err := d.lock(ctx, st.Name())
	if err != nil {
		return fail(err)
	}
	defer unlock()

	// Another process may have installed the entry while we waited.
	if d.inspector != nil {
		st = d.inspector.Inspect(ctx, st.Dependency)
		op.Status = st.Kind
		if st.Kind.IsInstalled() {
			op.Action = ActionSkip
			op.Success = true
			op.Description = "already installed: " + st.Detail()
			return op, nil
		}
		if !st.Kind.NeedsInstall() {
			return d.refuse(ctx, st)
		}
	}

	d.logger.Info("installing", "name", st.Name(), "type", st.Dependency.Kind, "wants", describeWants(st.Dependency))

	action, err := installerFor(d.installers, st.Dependency.Kind).Install(ctx, st)
	op.Action = action
	op.Description = describeAction(action, st.Dependency)
	if err != nil {
		return fail(err)
	}

	if d.inspector != nil {
		after := d.inspector.Inspect(ctx, st.Dependency)
		if !after.Kind.IsInstalled() {
			return fail(fmt.Errorf("install finished but entry is %s: %s", after.Kind, after.Detail()))
		}
	}

	op.Success = true
	d.logger.Info("installed", "name", st.Name(), "action", action)
	return op, nil
}

// lock takes the cross-process lock for one entry.
func (d *Dispatcher) lock(ctx context.Context, name string) (func(), error) {
	if err := os.MkdirAll(d.layout.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", d.layout.Root, err)
	}

	fl := flock.New(d.layout.LockPath(name))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", name, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s", name)
	}
	return func() { _ = fl.Unlock() }, nil
}

func describeWants(dep manifest.Dependency) string {
	if pin := dep.Pin(); pin != "" {
		return pin
	}
	return "default branch"
}

func describeAction(action Action, dep manifest.Dependency) string {
	switch action {
	case ActionDownload:
		return fmt.Sprintf("downloaded %s %s", dep.Name, dep.Version)
	case ActionClone:
		return fmt.Sprintf("cloned %s at %s", dep.URL, describeWants(dep))
	case ActionUpdate:
		return fmt.Sprintf("checked out %s", describeWants(dep))
	case ActionLink:
		return fmt.Sprintf("set dev directory %s", dep.DirValue())
	default:
		return string(action)
	}
}
