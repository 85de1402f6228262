package reconcile

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

// stubInspector returns a fixed kind per dependency name.
type stubInspector struct {
	kinds map[string]types.StatusKind
	delay time.Duration

	mu      sync.Mutex
	running int
	peak    int
	calls   atomic.Int32
}

func (s *stubInspector) Inspect(_ context.Context, dep manifest.Dependency) state.Status {
	s.calls.Add(1)
	s.mu.Lock()
	s.running++
	if s.running > s.peak {
		s.peak = s.running
	}
	s.mu.Unlock()

	time.Sleep(s.delay)

	s.mu.Lock()
	s.running--
	s.mu.Unlock()

	kind, ok := s.kinds[dep.Name]
	if !ok {
		kind = types.StatusMissing
	}
	return state.Status{Dependency: dep, Kind: kind, Wants: dep.Pin()}
}

func deps(names ...string) []manifest.Dependency {
	out := make([]manifest.Dependency, len(names))
	for i, n := range names {
		out[i] = manifest.Dependency{Name: n, Kind: types.SourceKindHaxelib, Version: "1.0.0"}
	}
	return out
}

func TestRunPreservesOrder(t *testing.T) {
	names := make([]string, 50)
	for i := range names {
		names[i] = fmt.Sprintf("lib%02d", i)
	}

	inspector := &stubInspector{delay: time.Millisecond}
	result := NewEngine(inspector, 8).Run(context.Background(), deps(names...))

	if len(result.Statuses) != len(names) {
		t.Fatalf("got %d statuses, want %d", len(result.Statuses), len(names))
	}
	for i, st := range result.Statuses {
		if st.Name() != names[i] {
			t.Errorf("Statuses[%d] = %q, want %q", i, st.Name(), names[i])
		}
	}
	if got := inspector.calls.Load(); got != int32(len(names)) {
		t.Errorf("Inspect called %d times, want %d", got, len(names))
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	inspector := &stubInspector{delay: 5 * time.Millisecond}
	NewEngine(inspector, 3).Run(context.Background(), deps("a", "b", "c", "d", "e", "f", "g", "h"))

	if inspector.peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", inspector.peak)
	}
}

func TestSummary(t *testing.T) {
	inspector := &stubInspector{kinds: map[string]types.StatusKind{
		"lime":    types.StatusInstalled,
		"openfl":  types.StatusInstalled,
		"flixel":  types.StatusOutdated,
		"hscript": types.StatusConflict,
		"broken":  types.StatusError,
	}}
	result := NewEngine(inspector, 2).Run(context.Background(), deps("lime", "openfl", "flixel", "hscript", "broken", "absent"))

	s := result.Summary()
	if s.Total != 6 || s.Installed != 2 {
		t.Errorf("Summary() = %d/%d, want 2/6", s.Installed, s.Total)
	}
	if s.ByKind[types.StatusMissing] != 1 {
		t.Errorf("ByKind[missing] = %d, want 1", s.ByKind[types.StatusMissing])
	}
	if want := "2 / 6 dependencies are installed at the correct versions"; s.String() != want {
		t.Errorf("String() = %q, want %q", s.String(), want)
	}
	if want := "2 installed, 1 missing, 1 outdated, 1 conflict, 1 error"; s.Breakdown() != want {
		t.Errorf("Breakdown() = %q, want %q", s.Breakdown(), want)
	}

	var pending []string
	for _, st := range result.Pending() {
		pending = append(pending, st.Name())
	}
	if want := []string{"flixel", "absent"}; !reflect.DeepEqual(pending, want) {
		t.Errorf("Pending() = %v, want %v", pending, want)
	}

	var attention []string
	for _, st := range result.Attention() {
		attention = append(attention, st.Name())
	}
	if want := []string{"hscript", "broken"}; !reflect.DeepEqual(attention, want) {
		t.Errorf("Attention() = %v, want %v", attention, want)
	}

	if result.InSync() {
		t.Error("InSync() = true, want false")
	}
}

func TestEmptyManifestIsInSync(t *testing.T) {
	result := NewEngine(&stubInspector{}, 0).Run(context.Background(), nil)
	if !result.InSync() {
		t.Error("InSync() = false for an empty manifest")
	}
	if got := result.Summary().String(); got != "0 / 0 dependencies are installed at the correct versions" {
		t.Errorf("Summary() = %q", got)
	}
}

// TestRunIsIdempotent runs the real inspector twice over the same cache.
func TestRunIsIdempotent(t *testing.T) {
	root := t.TempDir()
	layout := state.NewLayout(root)

	if err := os.MkdirAll(layout.RecordDir("lime"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(layout.CurrentMarker("lime"), []byte("8.1.2"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(layout.RecordDir("openfl"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(layout.CurrentMarker("openfl"), []byte("9.2.0"), 0644); err != nil {
		t.Fatal(err)
	}

	list := []manifest.Dependency{
		{Name: "lime", Kind: types.SourceKindHaxelib, Version: "8.1.2"},
		{Name: "openfl", Kind: types.SourceKindHaxelib, Version: "9.3.2"},
		{Name: "flixel", Kind: types.SourceKindGit, URL: "https://github.com/haxeflixel/flixel", Ref: "master"},
		{Name: "old", Kind: types.SourceKindMercurial},
	}

	engine := NewEngine(state.NewInspector(layout, nil), 4)
	first := engine.Run(context.Background(), list)
	second := engine.Run(context.Background(), list)

	if !reflect.DeepEqual(first.Statuses, second.Statuses) {
		t.Errorf("runs differ:\nfirst:  %v\nsecond: %v", first.Statuses, second.Statuses)
	}

	want := []types.StatusKind{types.StatusInstalled, types.StatusOutdated, types.StatusMissing, types.StatusUnsupported}
	for i, st := range first.Statuses {
		if st.Kind != want[i] {
			t.Errorf("%s: Kind = %v, want %v", st.Name(), st.Kind, want[i])
		}
	}
}
