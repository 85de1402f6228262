package install

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	commitMaster  = "1111111111111111111111111111111111111111"
	commitDevelop = "2222222222222222222222222222222222222222"
	commitTag     = "3333333333333333333333333333333333333333"
)

// fakeGit simulates one remote and stores working copy state in a file
// inside .git, so working copies survive being renamed.
// It implements both GitClient and state.Repository.
type fakeGit struct {
	mu            sync.Mutex
	defaultBranch string
	branches      map[string]string
	tags          map[string]string
	cloneErr      error

	Clones    []string
	Fetches   []string
	Checkouts []string
}

func newFakeGit() *fakeGit {
	return &fakeGit{
		defaultBranch: "master",
		branches:      map[string]string{"master": commitMaster, "develop": commitDevelop},
		tags:          map[string]string{"5.6.0": commitTag},
	}
}

func stateFile(path string) string {
	return filepath.Join(path, ".git", "fake-head")
}

func writeRepoState(path, commit, branch string) error {
	return os.WriteFile(stateFile(path), []byte(commit+" "+branch), 0644)
}

func readRepoState(path string) (commit, branch string, err error) {
	data, err := os.ReadFile(stateFile(path))
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(string(data), " ", 2)
	return parts[0], parts[1], nil
}

func (f *fakeGit) Clone(_ context.Context, url, dest string) error {
	f.mu.Lock()
	f.Clones = append(f.Clones, url)
	f.mu.Unlock()

	if f.cloneErr != nil {
		return f.cloneErr
	}
	entries, err := os.ReadDir(dest)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("destination %s is not empty", dest)
	}
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0755); err != nil {
		return err
	}
	return writeRepoState(dest, f.branches[f.defaultBranch], f.defaultBranch)
}

func (f *fakeGit) Fetch(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fetches = append(f.Fetches, path)
	return nil
}

func (f *fakeGit) Checkout(_ context.Context, path, ref string) error {
	f.mu.Lock()
	f.Checkouts = append(f.Checkouts, ref)
	f.mu.Unlock()

	if c, ok := f.branches[ref]; ok {
		return writeRepoState(path, c, ref)
	}
	if c, ok := f.tags[ref]; ok {
		return writeRepoState(path, c, "")
	}
	for _, c := range []string{commitMaster, commitDevelop, commitTag} {
		if len(ref) >= 4 && strings.HasPrefix(c, ref) {
			return writeRepoState(path, c, "")
		}
	}
	return fmt.Errorf("pathspec '%s' did not match", ref)
}

func (f *fakeGit) IsRepository(_ context.Context, path string) bool {
	_, err := os.Stat(stateFile(path))
	return err == nil
}

func (f *fakeGit) Head(_ context.Context, path string) (string, error) {
	commit, _, err := readRepoState(path)
	return commit, err
}

func (f *fakeGit) CurrentBranch(_ context.Context, path string) string {
	_, branch, err := readRepoState(path)
	if err != nil {
		return ""
	}
	return branch
}

func (f *fakeGit) ResolveRef(_ context.Context, _ string, ref string) (string, error) {
	if c, ok := f.branches[ref]; ok {
		return c, nil
	}
	if c, ok := f.tags[ref]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown revision %s", ref)
}

func (f *fakeGit) IsDirty(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(path, "DIRTY"))
	return err == nil, nil
}

// buildZip returns a zip archive containing the given files.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fakeRegistry serves /p/<name>/<version>/download for known packages.
type fakeRegistry struct {
	mu       sync.Mutex
	archives map[string][]byte
	requests []string
}

func newFakeRegistry(t *testing.T) (*fakeRegistry, *httptest.Server) {
	t.Helper()

	reg := &fakeRegistry{archives: make(map[string][]byte)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg.mu.Lock()
		reg.requests = append(reg.requests, r.URL.Path)
		data, ok := reg.archives[r.URL.Path]
		reg.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)
	return reg, server
}

func (r *fakeRegistry) add(name, version string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives[fmt.Sprintf("/p/%s/%s/download", name, version)] = data
}

func (r *fakeRegistry) requestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}
