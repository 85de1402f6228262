// Package hxml renders manifest dependencies as Haxe compiler -lib flags.
package hxml

import (
	"fmt"
	"io"
	"strings"

	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/types"
)

// Line renders one dependency as a -lib flag:
//
//	-lib lime:8.1.2
//	-lib flixel:git:https://github.com/haxeflixel/flixel#master
//	-lib mylib
func Line(dep manifest.Dependency) string {
	var b strings.Builder
	b.WriteString("-lib ")
	b.WriteString(dep.Name)

	switch dep.Kind {
	case types.SourceKindHaxelib:
		if dep.Version != "" {
			b.WriteString(":" + dep.Version)
		}
	case types.SourceKindGit:
		b.WriteString(":git:" + dep.URL)
		if dep.Ref != "" {
			b.WriteString("#" + dep.Ref)
		}
	}
	return b.String()
}

// Render renders every dependency, one flag per line.
func Render(deps []manifest.Dependency) string {
	var b strings.Builder
	for _, dep := range deps {
		b.WriteString(Line(dep))
		b.WriteByte('\n')
	}
	return b.String()
}

// Write writes the rendered flags to w.
func Write(w io.Writer, deps []manifest.Dependency) error {
	if _, err := io.WriteString(w, Render(deps)); err != nil {
		return fmt.Errorf("failed to write hxml: %w", err)
	}
	return nil
}
