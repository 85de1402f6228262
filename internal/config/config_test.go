package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/adamancini/hmm/internal/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("hmm", pflag.ContinueOnError)
	fs.StringP("path", "p", "hmm.json", "")
	fs.String("root", ".haxelib", "")
	fs.StringP("output", "o", "text", "")
	fs.Int("concurrency", 0, "")
	fs.BoolP("verbose", "v", false, "")
	fs.BoolP("quiet", "q", false, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, path, err := Load(LoadOptions{SettingsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("settings path = %q, want none", path)
	}

	want := Default()
	if *cfg != *want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
	if cfg.Concurrency != runtime.NumCPU() {
		t.Errorf("Concurrency = %d, want NumCPU", cfg.Concurrency)
	}
}

func TestLoadSettingsFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "hmm.yaml",
			content: `root: libs
registry_url: http://localhost:2000
install_concurrency: 2
http_timeout: 30s
`,
		},
		{
			name: "toml",
			file: "hmm.toml",
			content: `root = "libs"
registry_url = "http://localhost:2000"
install_concurrency = 2
http_timeout = "30s"
`,
		},
		{
			name:    "json",
			file:    "hmm.json",
			content: `{"root": "libs", "registry_url": "http://localhost:2000", "install_concurrency": 2, "http_timeout": "30s"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, tt.file), tt.content)

			cfg, path, err := Load(LoadOptions{SettingsDir: dir})
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if filepath.Base(path) != tt.file {
				t.Errorf("settings path = %q, want %s", path, tt.file)
			}
			if cfg.Root != "libs" {
				t.Errorf("Root = %q, want libs", cfg.Root)
			}
			if cfg.RegistryURL != "http://localhost:2000" {
				t.Errorf("RegistryURL = %q", cfg.RegistryURL)
			}
			if cfg.InstallConcurrency != 2 {
				t.Errorf("InstallConcurrency = %d, want 2", cfg.InstallConcurrency)
			}
			if cfg.HTTPTimeout != 30*time.Second {
				t.Errorf("HTTPTimeout = %s, want 30s", cfg.HTTPTimeout)
			}
			if cfg.Manifest != "hmm.json" {
				t.Errorf("Manifest = %q, want default", cfg.Manifest)
			}
		})
	}
}

func TestLoadExplicitSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, path, "output: json\n")

	cfg, used, err := Load(LoadOptions{SettingsFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if used != path {
		t.Errorf("settings path = %q, want %q", used, path)
	}
	if cfg.OutputFormat() != types.OutputJSON {
		t.Errorf("OutputFormat() = %q, want json", cfg.OutputFormat())
	}
}

func TestLoadExplicitSettingsFileMissing(t *testing.T) {
	_, _, err := Load(LoadOptions{SettingsFile: filepath.Join(t.TempDir(), "nope.yaml")})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Load() error = %v, want not found", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hmm.yaml"), "root: from-file\nmanifest: file.json\noutput: yaml\n")

	t.Setenv("HMM_ROOT", "from-env")
	t.Setenv("HMM_INSTALL_TIMEOUT", "90s")

	flags := testFlags()
	if err := flags.Parse([]string{"--path", "flag.json"}); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(LoadOptions{SettingsDir: dir, Flags: flags})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Manifest != "flag.json" {
		t.Errorf("Manifest = %q, flag should win", cfg.Manifest)
	}
	if cfg.Root != "from-env" {
		t.Errorf("Root = %q, env should beat the settings file", cfg.Root)
	}
	if cfg.Output != "yaml" {
		t.Errorf("Output = %q, unchanged flag should not beat the settings file", cfg.Output)
	}
	if cfg.InstallTimeout != 90*time.Second {
		t.Errorf("InstallTimeout = %s, want 90s", cfg.InstallTimeout)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hmm.yaml"), "concurrency: 0\noutput: xml\n")

	_, _, err := Load(LoadOptions{SettingsDir: dir})
	if err == nil {
		t.Fatal("Load() error = nil, want validation error")
	}
	for _, want := range []string{"concurrency must be at least 1", "unknown format: xml"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join("/tmp/xdg", "hmm") {
		t.Errorf("Dir() = %q", got)
	}
}
