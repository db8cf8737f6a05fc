// Package report renders markdown summaries: hosts-file changes between snapshots and
// checklist progress across the workspace.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hakim/examkit/internal/checklist"
	"github.com/hakim/examkit/internal/diff"
	"github.com/spf13/afero"
)

// RenderHostsDiff renders the delta between a backup and the live hosts file
func RenderHostsDiff(r *diff.Result, against string, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Hosts File Changes\n\n")
	b.WriteString(fmt.Sprintf("**Date:** %s\n", now.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("**Compared against:** %s\n\n", against))

	if r.Empty() {
		b.WriteString("No changes detected.\n")
		return b.String()
	}

	b.WriteString("| Previous | Current | Change |\n")
	b.WriteString("|----------|---------|--------|\n")
	b.WriteString(fmt.Sprintf("| %d | %d | %s |\n\n", r.PreviousCount, r.CurrentCount,
		formatChange(r.CurrentCount-r.PreviousCount, len(r.Added), len(r.Removed))))

	if len(r.Added) > 0 {
		b.WriteString(fmt.Sprintf("## Added (+%d)\n\n", len(r.Added)))
		for _, a := range r.Added {
			b.WriteString(fmt.Sprintf("- %s (%s)\n", a.Hostname, a.IP))
		}
		b.WriteString("\n")
	}

	if len(r.Removed) > 0 {
		b.WriteString(fmt.Sprintf("## Removed (-%d)\n\n", len(r.Removed)))
		for _, rm := range r.Removed {
			b.WriteString(fmt.Sprintf("- %s (%s)\n", rm.Hostname, rm.IP))
		}
		b.WriteString("\n")
	}

	if len(r.Changed) > 0 {
		b.WriteString(fmt.Sprintf("## Readdressed (%d)\n\n", len(r.Changed)))
		b.WriteString("| Hostname | Old IP | New IP |\n")
		b.WriteString("|----------|--------|--------|\n")
		for _, c := range r.Changed {
			b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", c.Hostname, c.OldIP, c.NewIP))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// formatChange renders a net delta with its add/remove breakdown, e.g. "+1 (+2 / -1)"
func formatChange(net, added, removed int) string {
	sign := ""
	if net > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%d (+%d / -%d)", sign, net, added, removed)
}

// SystemProgress is one target's progress within its category
type SystemProgress struct {
	Category string
	Name     string
	Progress checklist.Progress
}

// RenderProgress renders every system's checklist against tmpl
func RenderProgress(systems []SystemProgress, tmpl checklist.Template, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Checklist Progress\n\n")
	b.WriteString(fmt.Sprintf("**Date:** %s\n\n", now.UTC().Format("2006-01-02 15:04:05 UTC")))

	if len(systems) == 0 {
		b.WriteString("No systems provisioned.\n")
		return b.String()
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Category | System | Done | Total |\n")
	b.WriteString("|----------|--------|------|-------|\n")
	for _, s := range systems {
		done, total := s.Progress.Done()
		b.WriteString(fmt.Sprintf("| %s | %s | %d | %d |\n", s.Category, s.Name, done, total))
	}
	b.WriteString("\n")

	for _, s := range systems {
		b.WriteString(fmt.Sprintf("## %s\n\n", s.Name))
		for _, phase := range tmpl.Phases {
			b.WriteString(fmt.Sprintf("**%s**\n\n", phase.Name))
			for i, task := range phase.Tasks {
				mark := " "
				if flags := s.Progress[phase.Name]; i < len(flags) && flags[i] {
					mark = "x"
				}
				b.WriteString(fmt.Sprintf("- [%s] %s\n", mark, task))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// WriteFile writes a rendered report, wrapping any error with context
func WriteFile(fsys afero.Fs, outputPath, content string) error {
	if err := afero.WriteFile(fsys, outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}
