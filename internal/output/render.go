package output

import (
	"fmt"
	"strings"

	"github.com/adamancini/hmm/internal/install"
	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/reconcile"
	"github.com/adamancini/hmm/internal/registry"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

// StatusView is the structured form of one dependency's status.
type StatusView struct {
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Status    string `json:"status" yaml:"status"`
	Wants     string `json:"wants,omitempty" yaml:"wants,omitempty"`
	Installed string `json:"installed,omitempty" yaml:"installed,omitempty"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// CheckView is the structured result of `hmm check`.
type CheckView struct {
	Dependencies []StatusView `json:"dependencies" yaml:"dependencies"`
	Installed    int          `json:"installed" yaml:"installed"`
	Total        int          `json:"total" yaml:"total"`

	statuses []state.Status
	summary  reconcile.Summary
}

// NewCheckView builds a CheckView from a reconciliation result.
func NewCheckView(r *reconcile.Result) CheckView {
	summary := r.Summary()
	v := CheckView{
		Dependencies: make([]StatusView, 0, len(r.Statuses)),
		Installed:    summary.Installed,
		Total:        summary.Total,
		statuses:     r.Statuses,
		summary:      summary,
	}
	for _, st := range r.Statuses {
		sv := StatusView{
			Name:      st.Name(),
			Type:      st.Dependency.Kind.String(),
			Status:    st.Kind.String(),
			Wants:     st.Wants,
			Installed: st.Installed,
			Commit:    st.Commit,
		}
		if st.Err != nil {
			sv.Error = st.Err.Error()
		}
		v.Dependencies = append(v.Dependencies, sv)
	}
	return v
}

// String renders the check result for terminals.
func (v CheckView) String() string {
	var b strings.Builder
	for _, st := range v.statuses {
		b.WriteString(StatusLine(st))
		b.WriteByte('\n')
	}
	if v.summary.Installed != v.summary.Total {
		b.WriteString(MutedStyle.Render(v.summary.Breakdown()))
		b.WriteByte('\n')
	}
	b.WriteString(SummaryLine(v.summary))
	return b.String()
}

// StatusLine renders one status with a marker and its detail.
func StatusLine(st state.Status) string {
	var mark string
	switch st.Kind {
	case types.StatusInstalled:
		mark = SuccessStyle.Render("✓")
	case types.StatusMissing, types.StatusMissingRepository, types.StatusOutdated:
		mark = WarningStyle.Render("✗")
	case types.StatusUnsupported:
		mark = MutedStyle.Render("-")
	default:
		mark = ErrorStyle.Render("!")
	}
	return fmt.Sprintf("%s %s %s", mark, NameStyle.Render(st.Name()), MutedStyle.Render(st.Detail()))
}

// SummaryLine renders the installed / total line.
func SummaryLine(s reconcile.Summary) string {
	style := SuccessStyle
	if s.Installed != s.Total {
		style = WarningStyle
	}
	return style.Render(s.String())
}

// DependencyList is the structured result of `hmm list`.
type DependencyList struct {
	Dependencies []manifest.Dependency `json:"dependencies" yaml:"dependencies"`
	// RegistryURL is used to link registry dependencies in text output.
	RegistryURL string `json:"-" yaml:"-"`
}

// String renders the dependency list for terminals.
func (l DependencyList) String() string {
	if len(l.Dependencies) == 0 {
		return MutedStyle.Render("no dependencies")
	}

	client := registry.NewClient(l.RegistryURL, 0)
	blocks := make([]string, 0, len(l.Dependencies))
	for _, dep := range l.Dependencies {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s\n", NameStyle.Render(dep.Name), MutedStyle.Render("["+dep.Kind.String()+"]"))

		switch {
		case dep.Kind.IsHaxelib():
			fmt.Fprintf(&b, "version: %s\n", dep.Version)
			fmt.Fprintf(&b, "url: %s", LinkStyle.Render(client.PackageURL(dep.Name)))
		case dep.Kind.IsDev():
			fmt.Fprintf(&b, "dir: %s", dep.DirValue())
		default:
			ref := dep.Ref
			if ref == "" {
				ref = "default branch"
			}
			fmt.Fprintf(&b, "ref: %s", ref)
			if dep.URL != "" {
				fmt.Fprintf(&b, "\nurl: %s", LinkStyle.Render(dep.URL))
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// ReportView wraps an install report for rendering.
type ReportView struct {
	install.Report `yaml:",inline"`
	Summary        reconcile.Summary `json:"-" yaml:"-"`
}

// String renders the install report for terminals.
func (r ReportView) String() string {
	var b strings.Builder
	for _, op := range r.Operations {
		if op.Action == install.ActionSkip {
			continue
		}
		switch {
		case op.Success:
			fmt.Fprintf(&b, "%s %s %s\n", SuccessStyle.Render("✓"), NameStyle.Render(op.Name), MutedStyle.Render(op.Description))
		case op.Action == install.ActionRefuse:
			fmt.Fprintf(&b, "%s %s %s\n", WarningStyle.Render("!"), NameStyle.Render(op.Name), WarningStyle.Render(op.Error))
		default:
			fmt.Fprintf(&b, "%s %s %s\n", ErrorStyle.Render("✗"), NameStyle.Render(op.Name), ErrorStyle.Render(op.Error))
		}
	}
	fmt.Fprintf(&b, "%s\n", MutedStyle.Render(fmt.Sprintf("%d installed, %d updated, %d skipped, %d failed",
		r.Installed, r.Updated, r.Skipped, r.Failed)))
	b.WriteString(SummaryLine(r.Summary))
	return b.String()
}
