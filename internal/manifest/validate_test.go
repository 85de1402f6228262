package manifest

import (
	"strings"
	"testing"

	"github.com/adamancini/hmm/internal/types"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		deps        []Dependency
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid manifest",
			deps:    sampleManifest().Dependencies,
			wantErr: false,
		},
		{
			name:    "empty manifest",
			deps:    nil,
			wantErr: false,
		},
		{
			name:        "missing name",
			deps:        []Dependency{{Kind: types.SourceKindHaxelib, Version: "1.0.0"}},
			wantErr:     true,
			errContains: "name is required",
		},
		{
			name:        "missing type",
			deps:        []Dependency{{Name: "lime", Version: "1.0.0"}},
			wantErr:     true,
			errContains: "type is required",
		},
		{
			name:        "unknown type",
			deps:        []Dependency{{Name: "lime", Kind: "svn"}},
			wantErr:     true,
			errContains: "invalid type 'svn'",
		},
		{
			name:        "haxelib without version",
			deps:        []Dependency{{Name: "lime", Kind: types.SourceKindHaxelib}},
			wantErr:     true,
			errContains: "version is required",
		},
		{
			name:        "haxelib with ref",
			deps:        []Dependency{{Name: "lime", Kind: types.SourceKindHaxelib, Version: "1.0.0", Ref: "main"}},
			wantErr:     true,
			errContains: "ref is not allowed",
		},
		{
			name:        "git without url",
			deps:        []Dependency{{Name: "flixel", Kind: types.SourceKindGit, Ref: "master"}},
			wantErr:     true,
			errContains: "url is required",
		},
		{
			name:        "git with version",
			deps:        []Dependency{{Name: "flixel", Kind: types.SourceKindGit, URL: "https://x/y", Version: "1.0.0"}},
			wantErr:     true,
			errContains: "version is not allowed",
		},
		{
			name:        "dev without dir",
			deps:        []Dependency{{Name: "mylib", Kind: types.SourceKindDev}},
			wantErr:     true,
			errContains: "dir is required",
		},
		{
			name:    "hg has no pin requirements",
			deps:    []Dependency{{Name: "old", Kind: types.SourceKindMercurial}},
			wantErr: false,
		},
		{
			name: "duplicate names",
			deps: []Dependency{
				{Name: "lime", Kind: types.SourceKindHaxelib, Version: "1.0.0"},
				{Name: "lime", Kind: types.SourceKindHaxelib, Version: "2.0.0"},
			},
			wantErr:     true,
			errContains: "duplicate name 'lime'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Manifest{Dependencies: tt.deps})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.errContains)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	err := Validate(&Manifest{Dependencies: []Dependency{
		{Name: "lime", Kind: types.SourceKindHaxelib},
		{Name: "flixel", Kind: types.SourceKindGit},
	}})
	if err == nil {
		t.Fatal("Validate() expected error")
	}

	for _, want := range []string{"dependencies[0].version", "dependencies[1].url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, want containing %q", err, want)
		}
	}
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "dependencies[0].name", Message: "name is required"}
	if err.Error() != "dependencies[0].name: name is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}
