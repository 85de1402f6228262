package hxml

import (
	"bytes"
	"testing"

	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/types"
)

func TestLine(t *testing.T) {
	dir := "../mylib"

	tests := []struct {
		name string
		dep  manifest.Dependency
		want string
	}{
		{
			name: "haxelib",
			dep:  manifest.Dependency{Name: "lime", Kind: types.SourceKindHaxelib, Version: "8.1.2"},
			want: "-lib lime:8.1.2",
		},
		{
			name: "git with ref",
			dep:  manifest.Dependency{Name: "flixel", Kind: types.SourceKindGit, URL: "https://github.com/haxeflixel/flixel", Ref: "master"},
			want: "-lib flixel:git:https://github.com/haxeflixel/flixel#master",
		},
		{
			name: "git without ref",
			dep:  manifest.Dependency{Name: "flixel", Kind: types.SourceKindGit, URL: "https://github.com/haxeflixel/flixel"},
			want: "-lib flixel:git:https://github.com/haxeflixel/flixel",
		},
		{
			name: "dev",
			dep:  manifest.Dependency{Name: "mylib", Kind: types.SourceKindDev, Dir: &dir},
			want: "-lib mylib",
		},
		{
			name: "hg",
			dep:  manifest.Dependency{Name: "old", Kind: types.SourceKindMercurial, URL: "https://hg.example/old"},
			want: "-lib old",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Line(tt.dep); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	deps := []manifest.Dependency{
		{Name: "lime", Kind: types.SourceKindHaxelib, Version: "8.1.2"},
		{Name: "flixel", Kind: types.SourceKindGit, URL: "https://github.com/haxeflixel/flixel", Ref: "5.6.0"},
	}

	var buf bytes.Buffer
	if err := Write(&buf, deps); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "-lib lime:8.1.2\n-lib flixel:git:https://github.com/haxeflixel/flixel#5.6.0\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}

func TestRenderEmpty(t *testing.T) {
	if got := Render(nil); got != "" {
		t.Errorf("Render(nil) = %q, want empty", got)
	}
}
