package manifest

import (
	"fmt"
	"strings"

	"github.com/adamancini/hmm/internal/types"
)

// ValidationError represents a manifest integrity error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the manifest for required fields and consistent pins.
// All problems are collected into a single error.
func Validate(m *Manifest) error {
	var errors []string
	seen := make(map[string]int)

	for i, d := range m.Dependencies {
		if d.Name != "" {
			if first, ok := seen[d.Name]; ok {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("dependencies[%d].name", i),
					Message: fmt.Sprintf("duplicate name '%s' (first declared at dependencies[%d])", d.Name, first),
				}.Error())
			} else {
				seen[d.Name] = i
			}
		}

		for _, err := range validateDependency(i, d) {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateDependency(index int, d Dependency) []error {
	var errs []error
	field := func(name string) string {
		return fmt.Sprintf("dependencies[%d].%s", index, name)
	}

	if d.Name == "" {
		errs = append(errs, ValidationError{Field: field("name"), Message: "name is required"})
	}

	if err := d.Kind.Validate(); err != nil {
		return append(errs, ValidationError{Field: field("type"), Message: err.Error()})
	}

	switch d.Kind {
	case types.SourceKindHaxelib:
		if d.Version == "" {
			errs = append(errs, ValidationError{Field: field("version"), Message: "version is required for haxelib dependencies"})
		}
		if d.Ref != "" {
			errs = append(errs, ValidationError{Field: field("ref"), Message: "ref is not allowed for haxelib dependencies"})
		}
	case types.SourceKindGit:
		if d.URL == "" {
			errs = append(errs, ValidationError{Field: field("url"), Message: "url is required for git dependencies"})
		}
		if d.Version != "" {
			errs = append(errs, ValidationError{Field: field("version"), Message: "version is not allowed for git dependencies (use ref)"})
		}
	case types.SourceKindDev:
		if d.DirValue() == "" {
			errs = append(errs, ValidationError{Field: field("dir"), Message: "dir is required for dev dependencies"})
		}
	}

	return errs
}
