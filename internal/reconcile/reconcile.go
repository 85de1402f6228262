// Package reconcile compares every manifest dependency against the library
// cache and aggregates the results.
package reconcile

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

// Inspector classifies a single dependency. *state.Inspector implements it.
type Inspector interface {
	Inspect(ctx context.Context, dep manifest.Dependency) state.Status
}

// Engine runs an Inspector over a dependency list.
type Engine struct {
	inspector   Inspector
	concurrency int
}

// DefaultConcurrency bounds concurrent inspections when none is configured.
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// NewEngine creates an Engine. A concurrency below 1 uses DefaultConcurrency.
func NewEngine(inspector Inspector, concurrency int) *Engine {
	if concurrency < 1 {
		concurrency = DefaultConcurrency()
	}
	return &Engine{inspector: inspector, concurrency: concurrency}
}

// Run inspects every dependency and returns one status per dependency in
// manifest order. A failing entry is reported as an error status and never
// affects the others.
func (e *Engine) Run(ctx context.Context, deps []manifest.Dependency) *Result {
	statuses := make([]state.Status, len(deps))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, dep := range deps {
		g.Go(func() error {
			statuses[i] = e.inspector.Inspect(ctx, dep)
			return nil
		})
	}
	_ = g.Wait()

	return &Result{Statuses: statuses}
}

// Result holds the statuses of one reconciliation pass.
type Result struct {
	Statuses []state.Status
}

// Summary counts statuses by kind.
type Summary struct {
	Total     int
	Installed int
	ByKind    map[types.StatusKind]int
}

// String renders the summary line.
func (s Summary) String() string {
	return fmt.Sprintf("%d / %d dependencies are installed at the correct versions", s.Installed, s.Total)
}

// Breakdown renders the non-zero per-kind counts in reporting order,
// e.g. "2 installed, 1 missing, 1 conflict".
func (s Summary) Breakdown() string {
	var parts []string
	for _, kind := range types.AllStatusKinds() {
		if n := s.ByKind[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind))
		}
	}
	return strings.Join(parts, ", ")
}

// Summary returns counts for the pass.
func (r *Result) Summary() Summary {
	s := Summary{Total: len(r.Statuses), ByKind: make(map[types.StatusKind]int)}
	for _, st := range r.Statuses {
		s.ByKind[st.Kind]++
		if st.Kind.IsInstalled() {
			s.Installed++
		}
	}
	return s
}

// Pending returns the statuses an install can act on.
func (r *Result) Pending() []state.Status {
	var pending []state.Status
	for _, st := range r.Statuses {
		if st.Kind.NeedsInstall() {
			pending = append(pending, st)
		}
	}
	return pending
}

// Attention returns statuses that need manual action: conflicts,
// unsupported kinds, and inspection errors.
func (r *Result) Attention() []state.Status {
	var attention []state.Status
	for _, st := range r.Statuses {
		switch st.Kind {
		case types.StatusConflict, types.StatusUnsupported, types.StatusError:
			attention = append(attention, st)
		}
	}
	return attention
}

// InSync reports whether every dependency is installed correctly.
func (r *Result) InSync() bool {
	s := r.Summary()
	return s.Installed == s.Total
}
